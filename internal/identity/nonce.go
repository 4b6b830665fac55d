package identity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultNonceExpiry = 10 * time.Minute
	nonceBytes         = 16
)

// nonce検証の失敗理由。アダプタ層でKindTokenRetrievalFailedに包まれる。
var (
	ErrMalformedNonce = errors.New("malformed nonce token")
	ErrInvalidNonce   = errors.New("invalid nonce signature")
	ErrExpiredNonce   = errors.New("expired nonce token")
)

// noncePayload はnonceトークンに埋め込む内容。
type noncePayload struct {
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NonceService はHMAC署名付きのステートレスなnonceトークンを発行・検証する。
// サインイン試行ごとに新しいnonceを生成し、サーバー側に状態を持たない。
type NonceService struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

// NewNonceService はNonceServiceを生成する。
func NewNonceService(key []byte) *NonceService {
	return &NonceService{
		key:    key,
		expiry: defaultNonceExpiry,
		now:    time.Now,
	}
}

// Issue は暗号的に安全な乱数から新しいnonceトークンを発行する。
// クライアントはこのトークンをそのままネイティブサインインのnonceとして使う。
func (s *NonceService) Issue() (string, error) {
	raw := make([]byte, nonceBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	payload := noncePayload{
		Nonce:     hex.EncodeToString(raw),
		ExpiresAt: s.now().Add(s.expiry),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal nonce payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	return encoded + "." + s.sign(encoded), nil
}

// Validate はnonceトークンの署名と有効期限を検証する。
func (s *NonceService) Validate(token string) error {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return ErrMalformedNonce
	}

	encoded, sig := parts[0], parts[1]

	if !hmac.Equal([]byte(sig), []byte(s.sign(encoded))) {
		return ErrInvalidNonce
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return ErrMalformedNonce
	}

	var payload noncePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ErrMalformedNonce
	}

	if s.now().After(payload.ExpiresAt) {
		return ErrExpiredNonce
	}

	return nil
}

// HashHex はnonceトークンのSHA-256をhex表現で返す。
// IDトークンのnonceクレームはこの値と比較する。
func HashHex(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// sign はHMAC-SHA256署名をhex表現で返す。
func (s *NonceService) sign(data string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
