package identity

import (
	"errors"
	"fmt"
)

// Kind はアイデンティティアダプタ層のエラー分類を表す。
type Kind string

const (
	// KindNoSurface はサインインUIを提示できない状態をクライアントが報告したことを示す。
	KindNoSurface Kind = "no-presentable-surface"
	// KindProviderSignInFailed はIdP側でのサインイン失敗を示す。
	KindProviderSignInFailed Kind = "provider-sign-in-failed"
	// KindTokenRetrievalFailed はIdPトークンの取得・検証失敗を示す。
	KindTokenRetrievalFailed Kind = "token-retrieval-failed"
	// KindBackendSignInFailed はバックエンドセッション確立の失敗を示す。
	KindBackendSignInFailed Kind = "backend-sign-in-failed"
	// KindUserCancelled はユーザーによるキャンセルを示す。
	KindUserCancelled Kind = "user-cancelled"
	// KindNotFound は対象が見つからないことを示す。
	KindNotFound Kind = "not-found"
)

// Error はアイデンティティアダプタ層の分類付きエラー。
// 下位のエラーをそのまま上位へ流さず、必ずこの型に包んで返す。
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

// KindOf はエラーからKindを取り出す。identity.Errorでない場合は空文字を返す。
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
