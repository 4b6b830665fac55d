package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/homequest/internal/model"
	"github.com/hitoshi/homequest/internal/repository"
)

// クライアントがネイティブサインインUIの結果として報告する状態。
const (
	ClientStatusCancelled = "cancelled"
	ClientStatusNoSurface = "no-surface"
)

// SubjectRegistry はsubjectの登録済み判定インターフェース。
// プロフィールリポジトリが実装する。
type SubjectRegistry interface {
	Exists(ctx context.Context, subjectID string) (bool, error)
}

// Authenticator はサインイン・サインアウト・現在身元照会のインターフェース。
// かつてのグローバルなセッション状態の代わりに、呼び出し側へ注入して使う。
type Authenticator interface {
	// SignIn はプロバイダーで認証し、バックエンドセッションを確立する。
	SignIn(ctx context.Context, kind model.ProviderKind, cred Credential) (*model.IdentityResult, error)
	// SignOut は指定セッションを破棄する。
	SignOut(ctx context.Context, sessionID string) error
	// CurrentSubject はセッションに紐づくsubject idを返す。セッションが無い場合は空文字。
	CurrentSubject(ctx context.Context, sessionID string) (string, error)
	// RevokeAll は指定subjectの全セッションを破棄する。
	RevokeAll(ctx context.Context, subjectID string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service はAuthenticatorの標準実装。
// プロバイダー検証・subject解決・セッション発行を1回のサインインとして束ねる。
type Service struct {
	providers map[model.ProviderKind]Provider
	sessions  repository.SessionRepository
	registry  SubjectRegistry
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(providers map[model.ProviderKind]Provider, sessions repository.SessionRepository, registry SubjectRegistry, config ServiceConfig) *Service {
	return &Service{
		providers: providers,
		sessions:  sessions,
		registry:  registry,
		config:    config,
	}
}

// SignIn はプロバイダーで認証し、バックエンドセッションを確立する。
// 結果はサインイン試行ごとにちょうど1つ返る。
func (s *Service) SignIn(ctx context.Context, kind model.ProviderKind, cred Credential) (*model.IdentityResult, error) {
	// ネイティブUI側の失敗はクライアントからの報告として受け取る
	switch cred.ClientStatus {
	case ClientStatusCancelled:
		return nil, NewError(KindUserCancelled, "sign-in cancelled by user", nil)
	case ClientStatusNoSurface:
		return nil, NewError(KindNoSurface, "no presentable sign-in surface", nil)
	}

	provider, ok := s.providers[kind]
	if !ok {
		return nil, NewError(KindProviderSignInFailed, fmt.Sprintf("unsupported provider: %s", kind), nil)
	}

	ident, err := provider.SignIn(ctx, cred)
	if err != nil {
		return nil, err
	}

	subjectID := ident.Provider + ":" + ident.ProviderUserID

	exists, err := s.registry.Exists(ctx, subjectID)
	if err != nil {
		return nil, NewError(KindBackendSignInFailed, "failed to resolve subject", err)
	}

	session, err := s.createSession(ctx, subjectID)
	if err != nil {
		return nil, NewError(KindBackendSignInFailed, "failed to establish session", err)
	}

	slog.Info("identity resolved",
		slog.String("subject_id", subjectID),
		slog.String("provider", ident.Provider),
		slog.Bool("first_sign_in", !exists),
	)

	return &model.IdentityResult{
		SubjectID:     subjectID,
		Email:         ident.Email,
		DisplayName:   ident.Name,
		PhotoURL:      ident.PhotoURL,
		SessionID:     session.ID,
		IsFirstSignIn: !exists,
	}, nil
}

// SignOut は指定セッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return NewError(KindNotFound, "session ID is required", nil)
	}
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return NewError(KindBackendSignInFailed, "failed to delete session", err)
	}
	return nil
}

// CurrentSubject はセッションに紐づくsubject idを返す。セッションが無い場合は空文字。
func (s *Service) CurrentSubject(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return "", NewError(KindBackendSignInFailed, "failed to find session", err)
	}
	if session == nil {
		return "", nil
	}
	return session.SubjectID, nil
}

// RevokeAll は指定subjectの全セッションを破棄する。
func (s *Service) RevokeAll(ctx context.Context, subjectID string) error {
	if err := s.sessions.DeleteBySubjectID(ctx, subjectID); err != nil {
		return NewError(KindBackendSignInFailed, "failed to revoke sessions", err)
	}
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, subjectID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		SubjectID: subjectID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// compile-time interface check
var _ Authenticator = (*Service)(nil)
