// Package flow はオーケストレーション結果を画面遷移とユーザー向け状態に写像する。
// 本パッケージの関数はすべて純粋で、副作用を持たない。
package flow

import (
	"context"
	"errors"

	"github.com/hitoshi/homequest/internal/auth"
	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/model"
)

// NextAction はクライアントが次に取るべき画面遷移を表す。
type NextAction string

const (
	// ActionShowWelcome はウェルカムメッセージ表示後にメイン画面へ進む。
	ActionShowWelcome NextAction = "showWelcomeMessage"
	// ActionNavigateToMain はメイン画面へ直接遷移する。
	ActionNavigateToMain NextAction = "navigateToMain"
	// ActionNavigateToLogin はログイン画面へ遷移する。
	ActionNavigateToLogin NextAction = "navigateToLogin"
	// ActionNavigateToOnboarding はオンボーディング画面へ遷移する。
	ActionNavigateToOnboarding NextAction = "navigateToOnboarding"
	// ActionNavigateToGroupSetup はグループ作成・参加画面へ遷移する。
	ActionNavigateToGroupSetup NextAction = "navigateToGroupSetup"
)

// Result はプレゼンテーション層へ渡す最終的な判断。1回消費したら破棄する。
type Result struct {
	NextAction NextAction
	Profile    *model.HydratedProfile
	SessionID  string
	Alert      *model.APIError // リトライ可能なアラートとして表示する。nilなら正常。
}

// DecideLogin はサインイン成功結果を画面遷移に写像する。
// 新規ユーザーはウェルカム表示、既存ユーザーはメイン直行。
func DecideLogin(res *model.LoginResult) Result {
	action := ActionNavigateToMain
	if res.IsNewUser {
		action = ActionShowWelcome
	}
	return Result{
		NextAction: action,
		Profile:    res.Profile,
		SessionID:  res.SessionID,
	}
}

// DecideLaunch は起動時チェック結果を画面遷移に写像する。
func DecideLaunch(res *model.LaunchResult) Result {
	if !res.Authenticated {
		if res.OnboardingNeeded {
			return Result{NextAction: ActionNavigateToOnboarding}
		}
		return Result{NextAction: ActionNavigateToLogin}
	}
	return Result{
		NextAction: ActionNavigateToMain,
		Profile:    res.Profile,
	}
}

// DecideError はオーケストレータのエラーを画面遷移とアラートに写像する。
// グループ未所属はエラーではなくグループ設定画面への誘導として扱う。
func DecideError(err error) Result {
	if auth.KindOf(err) == auth.KindUserNotInGroup {
		return Result{NextAction: ActionNavigateToGroupSetup}
	}
	return Result{
		NextAction: ActionNavigateToLogin,
		Alert:      MapError(err),
	}
}

// MapError はオーケストレータ層のエラーをプレゼンテーション層の分類へ写像する。
// 写像は全域で、どの分類にも該当しないものはunknownに落とす。
func MapError(err error) *model.APIError {
	var ae *auth.Error
	if !errors.As(err, &ae) {
		return model.NewUnknownError()
	}

	switch ae.Kind {
	case auth.KindAuthenticationFailed:
		return model.NewAuthenticationFailedError(ae.Msg)

	case auth.KindUserNotFound:
		return model.NewUserNotFoundError()

	case auth.KindDataError:
		// フィールド変換の失敗はデータ処理系、それ以外（バッチ書き込み失敗など）は処理系
		var de *docstore.DecodeError
		if errors.As(ae.Err, &de) {
			return model.NewDataProcessingFailedError(ae.Msg)
		}
		return model.NewProcessingFailedError(ae.Msg)

	case auth.KindNetworkError:
		if errors.Is(ae.Err, context.DeadlineExceeded) {
			return model.NewTimeoutError()
		}
		return model.NewNetworkFailedError(ae.Msg)

	case auth.KindUIError:
		return model.NewUIFailedError(ae.Msg)

	case auth.KindUserNotInGroup:
		// DecideErrorが遷移として処理するが、単独で写像された場合は検証系として返す
		return model.NewValidationFailedError(ae.Msg)

	default:
		return model.NewUnknownError()
	}
}
