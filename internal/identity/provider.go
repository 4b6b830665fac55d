// Package identity は外部IdPによるサインインとバックエンドセッション管理を提供する。
package identity

import "context"

// Credential はモバイルクライアントから渡されるサインイン資格情報。
// プロバイダーごとに使用するフィールドが異なる。
type Credential struct {
	// AuthorizationCode は認可コード方式プロバイダー（Google）の認可コード。
	AuthorizationCode string
	// IdentityToken はnonce束縛トークン方式プロバイダー（Apple）のIDトークン。
	IdentityToken string
	// Nonce は本サービスが事前発行したHMAC署名付きnonceトークン。
	Nonce string
	// ClientStatus はネイティブサインインUI側の失敗をクライアントが報告する値。
	// ClientStatusCancelled / ClientStatusNoSurface のいずれか。通常は空。
	ClientStatus string
}

// ProviderIdentity はIdPが確認したプロバイダースコープの身元情報。
type ProviderIdentity struct {
	ProviderUserID string // プロバイダー内で一意なユーザー識別子（sub）
	Email          string
	Name           string
	PhotoURL       string
	Provider       string // "google", "apple"
}

// Provider は外部IdPのインターフェース。
// 1回の呼び出しにつき成功または失敗のちょうど1つの結果を返す。
type Provider interface {
	// SignIn は資格情報を検証し、確認済みの身元情報を返す。
	SignIn(ctx context.Context, cred Credential) (*ProviderIdentity, error)
}
