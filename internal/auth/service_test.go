package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/hitoshi/homequest/internal/identity"
	"github.com/hitoshi/homequest/internal/model"
	"github.com/hitoshi/homequest/internal/repository"
)

// --- モック定義 ---

type mockAuthenticator struct {
	signInFn         func(ctx context.Context, kind model.ProviderKind, cred identity.Credential) (*model.IdentityResult, error)
	signOutFn        func(ctx context.Context, sessionID string) error
	currentSubjectFn func(ctx context.Context, sessionID string) (string, error)
	revokeAllFn      func(ctx context.Context, subjectID string) error
}

func (m *mockAuthenticator) SignIn(ctx context.Context, kind model.ProviderKind, cred identity.Credential) (*model.IdentityResult, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, kind, cred)
	}
	return nil, nil
}

func (m *mockAuthenticator) SignOut(ctx context.Context, sessionID string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthenticator) CurrentSubject(ctx context.Context, sessionID string) (string, error) {
	if m.currentSubjectFn != nil {
		return m.currentSubjectFn(ctx, sessionID)
	}
	return "", nil
}

func (m *mockAuthenticator) RevokeAll(ctx context.Context, subjectID string) error {
	if m.revokeAllFn != nil {
		return m.revokeAllFn(ctx, subjectID)
	}
	return nil
}

type mockProfileRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Profile, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProfileRepo) Exists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockProfileRepo) UpdateNickname(_ context.Context, _, _ string) error {
	return nil
}

func (m *mockProfileRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockGroupRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Group, error)
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*model.Group, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockGroupRepo) FindByInviteCode(_ context.Context, _ string) (*model.Group, error) {
	return nil, nil
}

type mockMembershipRepo struct {
	listByGroupIDFn        func(ctx context.Context, groupID string) ([]*model.Membership, error)
	deleteByGroupAndUserFn func(ctx context.Context, groupID, userID string) error
}

func (m *mockMembershipRepo) ListByGroupID(ctx context.Context, groupID string) ([]*model.Membership, error) {
	if m.listByGroupIDFn != nil {
		return m.listByGroupIDFn(ctx, groupID)
	}
	return nil, nil
}

func (m *mockMembershipRepo) DeleteByGroupAndUser(ctx context.Context, groupID, userID string) error {
	if m.deleteByGroupAndUserFn != nil {
		return m.deleteByGroupAndUserFn(ctx, groupID, userID)
	}
	return nil
}

type mockBootstrapRepo struct {
	createBootstrapFn func(ctx context.Context, profile *model.Profile, group *model.Group, member *model.Membership) error
}

func (m *mockBootstrapRepo) CreateBootstrap(ctx context.Context, profile *model.Profile, group *model.Group, member *model.Membership) error {
	if m.createBootstrapFn != nil {
		return m.createBootstrapFn(ctx, profile, group, member)
	}
	return nil
}

// --- compile-time interface checks ---
var _ identity.Authenticator = (*mockAuthenticator)(nil)
var _ repository.ProfileRepository = (*mockProfileRepo)(nil)
var _ repository.GroupRepository = (*mockGroupRepo)(nil)
var _ repository.MembershipRepository = (*mockMembershipRepo)(nil)
var _ repository.BootstrapRepository = (*mockBootstrapRepo)(nil)

// --- テスト ---

func newTestIdentity(firstSignIn bool) *model.IdentityResult {
	return &model.IdentityResult{
		SubjectID:     "google:user-123",
		Email:         "taro@example.com",
		DisplayName:   "Taro",
		PhotoURL:      "https://example.com/photo.png",
		SessionID:     "session-abc",
		IsFirstSignIn: firstSignIn,
	}
}

func TestSignIn_NewUser_BootstrapsProfileGroupMembership(t *testing.T) {
	ctx := context.Background()

	authn := &mockAuthenticator{
		signInFn: func(_ context.Context, _ model.ProviderKind, _ identity.Credential) (*model.IdentityResult, error) {
			return newTestIdentity(true), nil
		},
	}

	var gotProfile *model.Profile
	var gotGroup *model.Group
	var gotMember *model.Membership
	bootstrap := &mockBootstrapRepo{
		createBootstrapFn: func(_ context.Context, p *model.Profile, g *model.Group, m *model.Membership) error {
			gotProfile, gotGroup, gotMember = p, g, m
			return nil
		},
	}

	svc := NewService(authn, &mockProfileRepo{}, &mockGroupRepo{}, &mockMembershipRepo{}, bootstrap, nil, nil)

	result, err := svc.SignIn(ctx, model.ProviderGoogle, identity.Credential{AuthorizationCode: "code"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if !result.IsNewUser {
		t.Error("IsNewUser = false, want true")
	}
	if result.SessionID != "session-abc" {
		t.Errorf("SessionID = %q, want %q", result.SessionID, "session-abc")
	}

	if gotProfile == nil || gotGroup == nil || gotMember == nil {
		t.Fatal("bootstrap was not called with all three records")
	}
	if gotProfile.ID != "google:user-123" {
		t.Errorf("profile.ID = %q, want %q", gotProfile.ID, "google:user-123")
	}
	if gotProfile.GroupID != gotGroup.ID {
		t.Errorf("profile.GroupID = %q, group.ID = %q, want matching", gotProfile.GroupID, gotGroup.ID)
	}
	if gotGroup.LeaderID != gotProfile.ID {
		t.Errorf("group.LeaderID = %q, want %q", gotGroup.LeaderID, gotProfile.ID)
	}
	if !gotMember.IsLeader {
		t.Error("member.IsLeader = false, want true")
	}
	if gotMember.Nickname != gotProfile.Nickname {
		t.Errorf("member.Nickname = %q, profile.Nickname = %q, want matching", gotMember.Nickname, gotProfile.Nickname)
	}

	// 3レコードは同一の作成時刻を共有する
	if !gotProfile.CreatedAt.Equal(gotGroup.CreatedAt) || !gotProfile.CreatedAt.Equal(gotMember.JoinedAt) {
		t.Error("bootstrap records do not share a common creation time")
	}

	if matched := regexp.MustCompile(`^[A-Z0-9]{8}$`).MatchString(gotGroup.InviteCode); !matched {
		t.Errorf("invite code %q does not match 8-char uppercase format", gotGroup.InviteCode)
	}

	if result.Profile == nil || !result.Profile.IsLeader {
		t.Error("new user profile should be hydrated as leader")
	}
}

func TestSignIn_ExistingUser_HydratesWithoutWrites(t *testing.T) {
	ctx := context.Background()

	authn := &mockAuthenticator{
		signInFn: func(_ context.Context, _ model.ProviderKind, _ identity.Credential) (*model.IdentityResult, error) {
			return newTestIdentity(false), nil
		},
	}
	profiles := &mockProfileRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Profile, error) {
			return &model.Profile{ID: id, Nickname: "sunny-panda-001-abcd", GroupID: "group-1"}, nil
		},
	}
	groups := &mockGroupRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Group, error) {
			return &model.Group{ID: id, Name: "わが家", LeaderID: "google:user-123"}, nil
		},
	}
	members := &mockMembershipRepo{
		listByGroupIDFn: func(_ context.Context, _ string) ([]*model.Membership, error) {
			return []*model.Membership{{UserID: "google:user-123", IsLeader: true}}, nil
		},
	}

	bootstrapCalled := false
	bootstrap := &mockBootstrapRepo{
		createBootstrapFn: func(_ context.Context, _ *model.Profile, _ *model.Group, _ *model.Membership) error {
			bootstrapCalled = true
			return nil
		},
	}

	svc := NewService(authn, profiles, groups, members, bootstrap, nil, nil)

	result, err := svc.SignIn(ctx, model.ProviderGoogle, identity.Credential{AuthorizationCode: "code"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if bootstrapCalled {
		t.Error("bootstrap must not run for an existing user")
	}
	if result.IsNewUser {
		t.Error("IsNewUser = true, want false")
	}
	if result.Profile.GroupName != "わが家" {
		t.Errorf("GroupName = %q, want %q", result.Profile.GroupName, "わが家")
	}
	if !result.Profile.IsLeader {
		t.Error("IsLeader = false, want true")
	}
}

func TestSignIn_UserCancelled_MapsToAuthenticationFailed(t *testing.T) {
	authn := &mockAuthenticator{
		signInFn: func(_ context.Context, _ model.ProviderKind, _ identity.Credential) (*model.IdentityResult, error) {
			return nil, identity.NewError(identity.KindUserCancelled, "sign-in cancelled by user", nil)
		},
	}
	svc := NewService(authn, &mockProfileRepo{}, &mockGroupRepo{}, &mockMembershipRepo{}, &mockBootstrapRepo{}, nil, nil)

	_, err := svc.SignIn(context.Background(), model.ProviderGoogle, identity.Credential{})
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindAuthenticationFailed {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindAuthenticationFailed)
	}

	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatal("error is not an orchestrator error")
	}
	if ae.Msg != "ログインがキャンセルされました" {
		t.Errorf("Msg = %q, want cancellation message", ae.Msg)
	}
}

func TestSignIn_ExistingUserWithoutGroup_MapsToUserNotInGroup(t *testing.T) {
	authn := &mockAuthenticator{
		signInFn: func(_ context.Context, _ model.ProviderKind, _ identity.Credential) (*model.IdentityResult, error) {
			return newTestIdentity(false), nil
		},
	}
	profiles := &mockProfileRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Profile, error) {
			return &model.Profile{ID: id, Nickname: "brave-rabbit-042-ef01", GroupID: ""}, nil
		},
	}
	svc := NewService(authn, profiles, &mockGroupRepo{}, &mockMembershipRepo{}, &mockBootstrapRepo{}, nil, nil)

	_, err := svc.SignIn(context.Background(), model.ProviderGoogle, identity.Credential{})
	if KindOf(err) != KindUserNotInGroup {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindUserNotInGroup)
	}
}

func TestSignIn_ExistingUserNotInMemberList_MapsToUserNotInGroup(t *testing.T) {
	authn := &mockAuthenticator{
		signInFn: func(_ context.Context, _ model.ProviderKind, _ identity.Credential) (*model.IdentityResult, error) {
			return newTestIdentity(false), nil
		},
	}
	profiles := &mockProfileRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Profile, error) {
			return &model.Profile{ID: id, GroupID: "group-1"}, nil
		},
	}
	groups := &mockGroupRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Group, error) {
			return &model.Group{ID: id, Name: "わが家"}, nil
		},
	}
	members := &mockMembershipRepo{
		listByGroupIDFn: func(_ context.Context, _ string) ([]*model.Membership, error) {
			return []*model.Membership{{UserID: "someone-else"}}, nil
		},
	}
	svc := NewService(authn, profiles, groups, members, &mockBootstrapRepo{}, nil, nil)

	_, err := svc.SignIn(context.Background(), model.ProviderGoogle, identity.Credential{})
	if KindOf(err) != KindUserNotInGroup {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindUserNotInGroup)
	}
}

func TestSignIn_ProfileMissing_MapsToUserNotFound(t *testing.T) {
	authn := &mockAuthenticator{
		signInFn: func(_ context.Context, _ model.ProviderKind, _ identity.Credential) (*model.IdentityResult, error) {
			return newTestIdentity(false), nil
		},
	}
	svc := NewService(authn, &mockProfileRepo{}, &mockGroupRepo{}, &mockMembershipRepo{}, &mockBootstrapRepo{}, nil, nil)

	_, err := svc.SignIn(context.Background(), model.ProviderGoogle, identity.Credential{})
	if KindOf(err) != KindUserNotFound {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindUserNotFound)
	}
}

func TestSignIn_BootstrapFailure_MapsToDataError(t *testing.T) {
	authn := &mockAuthenticator{
		signInFn: func(_ context.Context, _ model.ProviderKind, _ identity.Credential) (*model.IdentityResult, error) {
			return newTestIdentity(true), nil
		},
	}
	bootstrap := &mockBootstrapRepo{
		createBootstrapFn: func(_ context.Context, _ *model.Profile, _ *model.Group, _ *model.Membership) error {
			return errors.New("batch write failed")
		},
	}
	svc := NewService(authn, &mockProfileRepo{}, &mockGroupRepo{}, &mockMembershipRepo{}, bootstrap, nil, nil)

	_, err := svc.SignIn(context.Background(), model.ProviderGoogle, identity.Credential{})
	if KindOf(err) != KindDataError {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindDataError)
	}

	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatal("error is not an orchestrator error")
	}
	if ae.Msg != "新規ユーザーの作成に失敗しました" {
		t.Errorf("Msg = %q, want bootstrap failure message", ae.Msg)
	}
}

func TestCheckLaunchState_ValidSession_ReturnsAuthenticated(t *testing.T) {
	authn := &mockAuthenticator{
		currentSubjectFn: func(_ context.Context, _ string) (string, error) {
			return "google:user-123", nil
		},
	}
	profiles := &mockProfileRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Profile, error) {
			return &model.Profile{ID: id, GroupID: "group-1"}, nil
		},
	}
	groups := &mockGroupRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Group, error) {
			return &model.Group{ID: id, Name: "わが家", LeaderID: "google:user-123"}, nil
		},
	}
	members := &mockMembershipRepo{
		listByGroupIDFn: func(_ context.Context, _ string) ([]*model.Membership, error) {
			return []*model.Membership{{UserID: "google:user-123"}}, nil
		},
	}
	svc := NewService(authn, profiles, groups, members, &mockBootstrapRepo{}, nil, nil)

	result := svc.CheckLaunchState(context.Background(), "session-abc")
	if result == nil {
		t.Fatal("CheckLaunchState() returned nil")
	}
	if !result.Authenticated {
		t.Error("Authenticated = false, want true")
	}
	if result.Profile == nil {
		t.Error("Profile is nil for an authenticated session")
	}
}

func TestCheckLaunchState_NeverFails(t *testing.T) {
	tests := []struct {
		name     string
		authn    *mockAuthenticator
		profiles *mockProfileRepo
	}{
		{
			name:     "セッションなし",
			authn:    &mockAuthenticator{},
			profiles: &mockProfileRepo{},
		},
		{
			name: "セッション照会の失敗",
			authn: &mockAuthenticator{
				currentSubjectFn: func(_ context.Context, _ string) (string, error) {
					return "", identity.NewError(identity.KindBackendSignInFailed, "store down", errors.New("connection refused"))
				},
			},
			profiles: &mockProfileRepo{},
		},
		{
			name: "プロフィール取得の失敗",
			authn: &mockAuthenticator{
				currentSubjectFn: func(_ context.Context, _ string) (string, error) {
					return "google:user-123", nil
				},
			},
			profiles: &mockProfileRepo{
				findByIDFn: func(_ context.Context, _ string) (*model.Profile, error) {
					return nil, errors.New("store down")
				},
			},
		},
		{
			name: "プロフィール未発見",
			authn: &mockAuthenticator{
				currentSubjectFn: func(_ context.Context, _ string) (string, error) {
					return "google:user-123", nil
				},
			},
			profiles: &mockProfileRepo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.authn, tt.profiles, &mockGroupRepo{}, &mockMembershipRepo{}, &mockBootstrapRepo{}, nil, nil)

			result := svc.CheckLaunchState(context.Background(), "whatever")
			if result == nil {
				t.Fatal("CheckLaunchState() returned nil")
			}
			if result.Authenticated {
				t.Error("Authenticated = true, want false on failure")
			}
		})
	}
}

func TestSignOut_MapsIdentityError(t *testing.T) {
	authn := &mockAuthenticator{
		signOutFn: func(_ context.Context, _ string) error {
			return identity.NewError(identity.KindBackendSignInFailed, "store down", nil)
		},
	}
	svc := NewService(authn, &mockProfileRepo{}, &mockGroupRepo{}, &mockMembershipRepo{}, &mockBootstrapRepo{}, nil, nil)

	err := svc.SignOut(context.Background(), "session-abc")
	if KindOf(err) != KindAuthenticationFailed {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindAuthenticationFailed)
	}
}

func TestDeleteAccount_RemovesMembershipProfileAndSessions(t *testing.T) {
	deletedMembership := false
	deletedProfile := false
	revoked := false

	authn := &mockAuthenticator{
		currentSubjectFn: func(_ context.Context, _ string) (string, error) {
			return "google:user-123", nil
		},
		revokeAllFn: func(_ context.Context, subjectID string) error {
			if subjectID != "google:user-123" {
				t.Errorf("RevokeAll subjectID = %q, want %q", subjectID, "google:user-123")
			}
			revoked = true
			return nil
		},
	}
	profiles := &mockProfileRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Profile, error) {
			return &model.Profile{ID: id, GroupID: "group-1"}, nil
		},
		deleteByIDFn: func(_ context.Context, _ string) error {
			deletedProfile = true
			return nil
		},
	}
	members := &mockMembershipRepo{
		deleteByGroupAndUserFn: func(_ context.Context, groupID, userID string) error {
			if groupID != "group-1" || userID != "google:user-123" {
				t.Errorf("DeleteByGroupAndUser(%q, %q), want (group-1, google:user-123)", groupID, userID)
			}
			deletedMembership = true
			return nil
		},
	}
	svc := NewService(authn, profiles, &mockGroupRepo{}, members, &mockBootstrapRepo{}, nil, nil)

	if err := svc.DeleteAccount(context.Background(), "session-abc"); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	if !deletedMembership {
		t.Error("membership was not deleted")
	}
	if !deletedProfile {
		t.Error("profile was not deleted")
	}
	if !revoked {
		t.Error("sessions were not revoked")
	}
}

func TestDeleteAccount_NoSession_ReturnsUserNotFound(t *testing.T) {
	svc := NewService(&mockAuthenticator{}, &mockProfileRepo{}, &mockGroupRepo{}, &mockMembershipRepo{}, &mockBootstrapRepo{}, nil, nil)

	err := svc.DeleteAccount(context.Background(), "")
	if KindOf(err) != KindUserNotFound {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindUserNotFound)
	}
}
