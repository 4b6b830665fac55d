package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAppleKeysURL = "https://appleid.apple.com/auth/keys"
	defaultAppleIssuer  = "https://appleid.apple.com"

	appleKeysTTL = 1 * time.Hour
)

// AppleConfig はAppleプロバイダーの設定。
type AppleConfig struct {
	// ClientID はIDトークンのaudクレームと照合するアプリ識別子。
	ClientID string

	// テスト用にオーバーライド可能な値
	KeysURL string
	Issuer  string
}

// AppleProvider はSign in with AppleのIDトークンを検証するプロバイダー。
// トークンは試行ごとに発行されたnonceに束縛されていなければならない。
type AppleProvider struct {
	config AppleConfig
	nonces *NonceService
	client *http.Client

	keysMu      sync.Mutex
	keys        map[string]*rsa.PublicKey
	keysFetched time.Time
}

// NewAppleProvider はAppleProviderを生成する。
func NewAppleProvider(config AppleConfig, nonces *NonceService) *AppleProvider {
	if config.KeysURL == "" {
		config.KeysURL = defaultAppleKeysURL
	}
	if config.Issuer == "" {
		config.Issuer = defaultAppleIssuer
	}
	return &AppleProvider{
		config: config,
		nonces: nonces,
		client: http.DefaultClient,
	}
}

// appleClaims はAppleのIDトークンのクレーム。
type appleClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
	Email string `json:"email"`
}

// SignIn はIDトークンの署名・発行者・audience・nonce束縛を検証する。
// nonceが欠落・期限切れ・不一致の場合は拒否する。
func (p *AppleProvider) SignIn(ctx context.Context, cred Credential) (*ProviderIdentity, error) {
	if cred.IdentityToken == "" {
		return nil, NewError(KindProviderSignInFailed, "missing identity token", nil)
	}
	if cred.Nonce == "" {
		return nil, NewError(KindTokenRetrievalFailed, "missing nonce", nil)
	}

	if err := p.nonces.Validate(cred.Nonce); err != nil {
		return nil, NewError(KindTokenRetrievalFailed, "nonce validation failed", err)
	}

	claims := &appleClaims{}
	_, err := jwt.ParseWithClaims(cred.IdentityToken, claims, p.keyFunc(ctx),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(p.config.Issuer),
		jwt.WithAudience(p.config.ClientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, NewError(KindTokenRetrievalFailed, "failed to verify identity token", err)
	}

	// トークンはこの試行のnonceに対して発行されたものでなければならない
	if claims.Nonce == "" || claims.Nonce != HashHex(cred.Nonce) {
		return nil, NewError(KindTokenRetrievalFailed, "identity token nonce mismatch", nil)
	}

	if claims.Subject == "" {
		return nil, NewError(KindProviderSignInFailed, "empty subject in identity token", nil)
	}

	return &ProviderIdentity{
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		Provider:       "apple",
	}, nil
}

// keyFunc はkidに対応するAppleの公開鍵を返すjwt.Keyfuncを生成する。
func (p *AppleProvider) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("missing kid in token header")
		}

		keys, err := p.fetchKeys(ctx)
		if err != nil {
			return nil, err
		}

		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown signing key: %s", kid)
		}
		return key, nil
	}
}

// appleJWKS はAppleの公開鍵エンドポイントのレスポンス。
type appleJWKS struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// fetchKeys はAppleの公開鍵一覧を取得する。TTL内はキャッシュを返す。
func (p *AppleProvider) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	p.keysMu.Lock()
	defer p.keysMu.Unlock()

	if p.keys != nil && time.Since(p.keysFetched) < appleKeysTTL {
		return p.keys, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.KeysURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create keys request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("keys request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("keys fetch failed with status %d", resp.StatusCode)
	}

	var jwks appleJWKS
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("failed to parse keys response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key %s: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	p.keys = keys
	p.keysFetched = time.Now()
	return keys, nil
}

// parseRSAKey はJWKのn/e（base64url）からRSA公開鍵を組み立てる。
func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	eInt := 0
	for _, b := range eBytes {
		eInt = eInt<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: eInt,
	}, nil
}

// compile-time interface check
var _ Provider = (*AppleProvider)(nil)
