// Package auth はサインインオーケストレーションと新規ユーザーブートストラップを提供する。
package auth

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/identity"
	"github.com/hitoshi/homequest/internal/model"
	"github.com/hitoshi/homequest/internal/repository"
)

// defaultGroupName は新規グループの表示名。リーダーが後から変更できる。
const defaultGroupName = "わが家"

// Metrics はオーケストレータが記録するメトリクスのインターフェース。
type Metrics interface {
	RecordSignIn(provider string, result string)
	RecordBootstrap()
	ObserveSignInDuration(d time.Duration)
}

// nopMetrics はメトリクス未設定時の何もしない実装。
type nopMetrics struct{}

func (nopMetrics) RecordSignIn(string, string)         {}
func (nopMetrics) RecordBootstrap()                    {}
func (nopMetrics) ObserveSignInDuration(time.Duration) {}

// Service はサインイン試行ごとの状態遷移
// Idle → SigningIn → Resolving → {Bootstrapping | Hydrating} → Done | Failed
// を1つの逐次フローとして実行する。各ステップは前ステップの出力に依存するため
// 並行化は行わない。
type Service struct {
	authn     identity.Authenticator
	profiles  repository.ProfileRepository
	groups    repository.GroupRepository
	members   repository.MembershipRepository
	bootstrap repository.BootstrapRepository
	metrics   Metrics

	// ニックネーム生成用の乱数源。テストでは固定シードを注入する。
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService はServiceを生成する。metricsがnilの場合は記録しない。
func NewService(
	authn identity.Authenticator,
	profiles repository.ProfileRepository,
	groups repository.GroupRepository,
	members repository.MembershipRepository,
	bootstrap repository.BootstrapRepository,
	rng *rand.Rand,
	metrics Metrics,
) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		authn:     authn,
		profiles:  profiles,
		groups:    groups,
		members:   members,
		bootstrap: bootstrap,
		metrics:   metrics,
		rng:       rng,
	}
}

// SignIn はプロバイダーでサインインし、新規ユーザーならブートストラップ、
// 既存ユーザーならハイドレーションを行ってLoginResultを返す。
func (s *Service) SignIn(ctx context.Context, kind model.ProviderKind, cred identity.Credential) (*model.LoginResult, error) {
	start := time.Now()

	ident, err := s.authn.SignIn(ctx, kind, cred)
	if err != nil {
		s.metrics.RecordSignIn(string(kind), "failure")
		return nil, mapIdentityError(err)
	}

	var result *model.LoginResult
	if ident.IsFirstSignIn {
		result, err = s.bootstrapNewUser(ctx, ident)
	} else {
		result, err = s.hydrateExistingUser(ctx, ident)
	}
	if err != nil {
		s.metrics.RecordSignIn(string(kind), "failure")
		return nil, err
	}

	s.metrics.RecordSignIn(string(kind), "success")
	s.metrics.ObserveSignInDuration(time.Since(start))

	return result, nil
}

// CheckLaunchState はアプリ起動時の認証状態を返す。
// いかなる失敗も「未認証」として扱い、エラーを返さない。バックエンドの
// 一時障害でユーザーをログイン不能な画面に閉じ込めないためのフェイルセーフ。
func (s *Service) CheckLaunchState(ctx context.Context, sessionID string) *model.LaunchResult {
	subjectID, err := s.authn.CurrentSubject(ctx, sessionID)
	if err != nil || subjectID == "" {
		if err != nil {
			slog.Warn("launch state check failed", slog.String("error", err.Error()))
		}
		return &model.LaunchResult{Authenticated: false}
	}

	profile, err := s.hydrate(ctx, subjectID)
	if err != nil {
		slog.Warn("launch state hydration failed",
			slog.String("subject_id", subjectID),
			slog.String("error", err.Error()),
		)
		return &model.LaunchResult{Authenticated: false}
	}

	return &model.LaunchResult{
		Authenticated: true,
		// TODO(onboarding): 永続状態からオンボーディング要否を算出する。判定ロジックは未定義。
		OnboardingNeeded: false,
		Profile:          profile,
	}
}

// SignOut はセッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.authn.SignOut(ctx, sessionID); err != nil {
		return mapIdentityError(err)
	}
	return nil
}

// DeleteAccount はプロフィール・グループ所属・全セッションを削除する。
func (s *Service) DeleteAccount(ctx context.Context, sessionID string) error {
	subjectID, err := s.authn.CurrentSubject(ctx, sessionID)
	if err != nil {
		return mapIdentityError(err)
	}
	if subjectID == "" {
		return NewError(KindUserNotFound, "サインインしていません", nil)
	}

	profile, err := s.profiles.FindByID(ctx, subjectID)
	if err != nil {
		return classifyStoreError(err)
	}

	if profile != nil && profile.GroupID != "" {
		if err := s.members.DeleteByGroupAndUser(ctx, profile.GroupID, subjectID); err != nil {
			return classifyStoreError(err)
		}
	}
	if err := s.profiles.DeleteByID(ctx, subjectID); err != nil {
		return classifyStoreError(err)
	}
	if err := s.authn.RevokeAll(ctx, subjectID); err != nil {
		return mapIdentityError(err)
	}

	slog.Info("account deleted", slog.String("subject_id", subjectID))
	return nil
}

// bootstrapNewUser は新規ユーザーのProfile・Group・Membershipを
// 共通の作成時刻で構築し、1回のアトミックなバッチ書き込みで登録する。
func (s *Service) bootstrapNewUser(ctx context.Context, ident *model.IdentityResult) (*model.LoginResult, error) {
	s.rngMu.Lock()
	nickname := GenerateNickname(s.rng, ident.SubjectID)
	s.rngMu.Unlock()

	groupID := NewGroupID()
	now := time.Now()

	profile := &model.Profile{
		ID:                ident.SubjectID,
		Nickname:          nickname,
		AvatarURL:         ident.PhotoURL,
		GroupID:           groupID,
		NicknameChangedAt: now,
		CreatedAt:         now,
	}
	group := &model.Group{
		ID:            groupID,
		Name:          defaultGroupName,
		LeaderID:      ident.SubjectID,
		InviteCode:    NewInviteCode(),
		NameChangedAt: now,
		CreatedAt:     now,
	}
	member := &model.Membership{
		UserID:   ident.SubjectID,
		Nickname: nickname,
		JoinedAt: now,
		IsLeader: true,
	}

	if err := s.bootstrap.CreateBootstrap(ctx, profile, group, member); err != nil {
		return nil, NewError(KindDataError, "新規ユーザーの作成に失敗しました", err)
	}

	s.metrics.RecordBootstrap()
	slog.Info("new user bootstrapped",
		slog.String("subject_id", ident.SubjectID),
		slog.String("group_id", groupID),
	)

	return &model.LoginResult{
		Profile: &model.HydratedProfile{
			Profile:   *profile,
			GroupName: group.Name,
			IsLeader:  true,
		},
		SessionID: ident.SessionID,
		IsNewUser: true,
	}, nil
}

// hydrateExistingUser は既存ユーザーをハイドレーションしてLoginResultを返す。
func (s *Service) hydrateExistingUser(ctx context.Context, ident *model.IdentityResult) (*model.LoginResult, error) {
	profile, err := s.hydrate(ctx, ident.SubjectID)
	if err != nil {
		return nil, err
	}

	slog.Info("existing user signed in", slog.String("subject_id", ident.SubjectID))

	return &model.LoginResult{
		Profile:   profile,
		SessionID: ident.SessionID,
		IsNewUser: false,
	}, nil
}

// hydrate はProfile → Group → メンバー一覧の3段階の逐次フェッチで
// 完全なプロフィールを組み立てる。各ステップの入力が前ステップの出力に
// 依存するため、順序は固定。
func (s *Service) hydrate(ctx context.Context, subjectID string) (*model.HydratedProfile, error) {
	profile, err := s.profiles.FindByID(ctx, subjectID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if profile == nil {
		return nil, NewError(KindUserNotFound, "プロフィールが見つかりません", nil)
	}

	if profile.GroupID == "" {
		return nil, NewError(KindUserNotInGroup, "グループに所属していません", nil)
	}

	group, err := s.groups.FindByID(ctx, profile.GroupID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if group == nil {
		return nil, NewError(KindDataError, "所属グループが見つかりません", nil)
	}

	members, err := s.members.ListByGroupID(ctx, group.ID)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	inGroup := false
	for _, m := range members {
		if m.UserID == subjectID {
			inGroup = true
			break
		}
	}
	if !inGroup {
		return nil, NewError(KindUserNotInGroup, "グループのメンバーに含まれていません", nil)
	}

	return &model.HydratedProfile{
		Profile:   *profile,
		GroupName: group.Name,
		IsLeader:  group.LeaderID == subjectID,
	}, nil
}

// classifyStoreError はストア由来のエラーを本層の分類へ写像する。
// 変換失敗はデータ系、それ以外は通信系として扱う。
func classifyStoreError(err error) *Error {
	var de *docstore.DecodeError
	if errors.As(err, &de) {
		return NewError(KindDataError, "データの変換に失敗しました", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(KindNetworkError, "処理が中断されました", err)
	}
	return NewError(KindNetworkError, "ストアへのアクセスに失敗しました", err)
}
