// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hitoshi/homequest/internal/model"
)

type contextKey string

const (
	subjectIDKey contextKey = "subjectID"
	sessionIDKey contextKey = "sessionID"
)

// ErrNoSubject はコンテキストにsubject idが存在しないことを示す。
var ErrNoSubject = errors.New("no subject in context")

// SessionFinder はセッション検索のインターフェース。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// 存在しない場合は空文字を返す。
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

// NewSessionMiddleware はBearerトークンのセッションを検証し、
// subject idをコンテキストに載せるミドルウェアを返す。
// セッションが無効な場合は401を返す。
func NewSessionMiddleware(finder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			session, err := finder.FindByID(r.Context(), token)
			if err != nil || session == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), subjectIDKey, session.SubjectID)
			ctx = context.WithValue(ctx, sessionIDKey, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectIDFromContext はコンテキストからsubject idを取り出す。
func SubjectIDFromContext(ctx context.Context) (string, error) {
	v, ok := ctx.Value(subjectIDKey).(string)
	if !ok || v == "" {
		return "", ErrNoSubject
	}
	return v, nil
}

// SessionIDFromContext はコンテキストからセッションIDを取り出す。
func SessionIDFromContext(ctx context.Context) (string, error) {
	v, ok := ctx.Value(sessionIDKey).(string)
	if !ok || v == "" {
		return "", ErrNoSubject
	}
	return v, nil
}
