package model

// ProviderKind は外部IdPの種別を表す。
type ProviderKind string

const (
	// ProviderGoogle は認可コード方式のOAuthプロバイダー。
	ProviderGoogle ProviderKind = "google"
	// ProviderApple はnonce束縛トークン方式のネイティブ認証プロバイダー。
	ProviderApple ProviderKind = "apple"
)

// IdentityResult は外部IdPが確認した身元情報を表す。
// サインイン試行ごとに1回生成され、永続化されずオーケストレータが即座に消費する。
type IdentityResult struct {
	SubjectID     string // IdP発行の安定識別子
	Email         string
	DisplayName   string
	PhotoURL      string
	SessionID     string // サインイン成功時に発行されたバックエンドセッション
	IsFirstSignIn bool   // このsubjectの初回サインインかどうか
}

// LoginResult はサインインオーケストレーションの成果を表す。
// プロセス内でのみ使用し、1回消費したら破棄する。
type LoginResult struct {
	Profile   *HydratedProfile
	SessionID string
	IsNewUser bool
}

// LaunchResult はアプリ起動時の認証状態チェックの成果を表す。
type LaunchResult struct {
	Authenticated    bool
	OnboardingNeeded bool
	Profile          *HydratedProfile
}
