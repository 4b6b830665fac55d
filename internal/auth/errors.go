package auth

import (
	"errors"
	"fmt"

	"github.com/hitoshi/homequest/internal/identity"
)

// Kind はオーケストレータ層のエラー分類を表す。
type Kind string

const (
	// KindAuthenticationFailed は認証フロー全般の失敗を示す。
	KindAuthenticationFailed Kind = "authentication-failed"
	// KindUserNotFound はプロフィールが存在しないことを示す。
	KindUserNotFound Kind = "user-not-found"
	// KindUserNotInGroup はグループ未所属を示す。
	KindUserNotInGroup Kind = "user-not-in-group"
	// KindDataError はストアの書き込み・変換失敗を示す。
	KindDataError Kind = "data-error"
	// KindNetworkError はストア・IdPとの通信失敗を示す。
	KindNetworkError Kind = "network-error"
	// KindUIError はクライアントの画面提示起因の失敗を示す。
	KindUIError Kind = "ui-error"
	// KindUnknown は分類不能なエラーを示す。
	KindUnknown Kind = "unknown"
)

// Error はオーケストレータ層の分類付きエラー。
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap は包んだエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError は分類付きエラーを生成する。
func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf はエラーからKindを取り出す。auth.Errorでない場合はKindUnknownを返す。
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// mapIdentityError はアイデンティティアダプタ層のエラーを本層の分類へ写像する。
// 下位エラーをそのまま上へ流さず、未知の分類はKindUnknownへ落とす。
func mapIdentityError(err error) *Error {
	switch identity.KindOf(err) {
	case identity.KindUserCancelled:
		return NewError(KindAuthenticationFailed, "ログインがキャンセルされました", err)
	case identity.KindProviderSignInFailed:
		return NewError(KindAuthenticationFailed, "プロバイダーでのログインに失敗しました", err)
	case identity.KindTokenRetrievalFailed:
		return NewError(KindAuthenticationFailed, "トークンの検証に失敗しました", err)
	case identity.KindBackendSignInFailed:
		return NewError(KindAuthenticationFailed, "セッションの確立に失敗しました", err)
	case identity.KindNoSurface:
		return NewError(KindUIError, "ログイン画面を表示できませんでした", err)
	case identity.KindNotFound:
		return NewError(KindUserNotFound, "対象が見つかりません", err)
	default:
		return NewError(KindUnknown, "予期しないエラー", err)
	}
}
