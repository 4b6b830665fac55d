// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード（プレゼンテーション層のエラー分類）
const (
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeProcessingFailed     = "PROCESSING_FAILED"
	ErrCodeDataProcessingFailed = "DATA_PROCESSING_FAILED"
	ErrCodeNetworkFailed        = "NETWORK_FAILED"
	ErrCodeUIFailed             = "UI_FAILED"
	ErrCodeTimeout              = "TIMEOUT"
	ErrCodeUnknown              = "UNKNOWN"
)

// NewAuthenticationFailedError は認証失敗エラーを生成する。
func NewAuthenticationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthenticationFailed,
		Message:  fmt.Sprintf("ログインに失敗しました: %s", reason),
		Category: "auth",
		Action:   "もう一度ログインをお試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewValidationFailedError は入力検証エラーを生成する。
func NewValidationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewProcessingFailedError は処理失敗エラーを生成する。
// 新規ユーザー作成（ブートストラップ）失敗時もこのエラーを使用する。
func NewProcessingFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeProcessingFailed,
		Message:  fmt.Sprintf("処理に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDataProcessingFailedError はデータ変換失敗エラーを生成する。
func NewDataProcessingFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeDataProcessingFailed,
		Message:  fmt.Sprintf("データの処理に失敗しました: %s", reason),
		Category: "system",
		Action:   "アプリを最新版に更新してから再度お試しください。",
	}
}

// NewNetworkFailedError は通信失敗エラーを生成する。
func NewNetworkFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNetworkFailed,
		Message:  fmt.Sprintf("通信に失敗しました: %s", reason),
		Category: "system",
		Action:   "電波状況を確認してから再度お試しください。",
	}
}

// NewUIFailedError は画面表示起因の失敗エラーを生成する。
func NewUIFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUIFailed,
		Message:  fmt.Sprintf("画面の表示に失敗しました: %s", reason),
		Category: "system",
		Action:   "アプリを再起動してから再度お試しください。",
	}
}

// NewTimeoutError はタイムアウトエラーを生成する。
func NewTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeTimeout,
		Message:  "処理がタイムアウトしました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnknownError は分類不能なエラーを生成する。
func NewUnknownError() *APIError {
	return &APIError{
		Code:     ErrCodeUnknown,
		Message:  "予期しないエラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
