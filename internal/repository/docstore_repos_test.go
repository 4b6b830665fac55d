package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/model"
)

func newTestProfile(id string) *model.Profile {
	now := time.Now().Truncate(time.Second)
	return &model.Profile{
		ID:                id,
		Nickname:          "sunny-panda-001-abcd",
		AvatarURL:         "https://example.com/photo.png",
		GroupID:           "group-1",
		NicknameChangedAt: now,
		CreatedAt:         now,
	}
}

func newTestGroup(id, inviteCode string) *model.Group {
	now := time.Now().Truncate(time.Second)
	return &model.Group{
		ID:            id,
		Name:          "わが家",
		LeaderID:      "google:user-123",
		InviteCode:    inviteCode,
		NameChangedAt: now,
		CreatedAt:     now,
	}
}

func TestDocstoreProfileRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewDocstoreProfileRepo(store)

	want := newTestProfile("google:user-123")
	if err := store.Create(ctx, model.CollectionUsers, want.ID, encodeProfile(want)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.FindByID(ctx, want.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("FindByID() = nil, want profile")
	}
	if got.Nickname != want.Nickname {
		t.Errorf("Nickname = %q, want %q", got.Nickname, want.Nickname)
	}
	if got.GroupID != want.GroupID {
		t.Errorf("GroupID = %q, want %q", got.GroupID, want.GroupID)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestDocstoreProfileRepo_FindByID_MissingReturnsNil(t *testing.T) {
	repo := NewDocstoreProfileRepo(docstore.NewMemoryStore())

	got, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindByID() = %v, want nil", got)
	}
}

func TestDocstoreProfileRepo_Exists(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewDocstoreProfileRepo(store)

	exists, err := repo.Exists(ctx, "google:user-123")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true before creation, want false")
	}

	p := newTestProfile("google:user-123")
	if err := store.Create(ctx, model.CollectionUsers, p.ID, encodeProfile(p)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	exists, err = repo.Exists(ctx, p.ID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false after creation, want true")
	}
}

func TestDocstoreProfileRepo_DecodeFailure(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewDocstoreProfileRepo(store)

	// createdAtが数値で保存されている壊れたドキュメント
	if err := store.Create(ctx, model.CollectionUsers, "broken", docstore.Fields{
		"nickname":          "x",
		"groupId":           "g1",
		"nicknameChangedAt": time.Now().Format(time.RFC3339),
		"createdAt":         12345,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := repo.FindByID(ctx, "broken")
	var de *docstore.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("FindByID() error = %v, want DecodeError", err)
	}
	if de.Field != "createdAt" {
		t.Errorf("DecodeError.Field = %q, want %q", de.Field, "createdAt")
	}
}

func TestDocstoreGroupRepo_FindByInviteCode(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewDocstoreGroupRepo(store)

	for _, g := range []*model.Group{
		newTestGroup("group-1", "AB12CD34"),
		newTestGroup("group-2", "EF56GH78"),
	} {
		if err := store.Create(ctx, model.CollectionGroups, g.ID, encodeGroup(g)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repo.FindByInviteCode(ctx, "EF56GH78")
	if err != nil {
		t.Fatalf("FindByInviteCode() error = %v", err)
	}
	if got == nil || got.ID != "group-2" {
		t.Errorf("FindByInviteCode() = %v, want group-2", got)
	}

	missing, err := repo.FindByInviteCode(ctx, "ZZZZZZZZ")
	if err != nil {
		t.Fatalf("FindByInviteCode() error = %v", err)
	}
	if missing != nil {
		t.Errorf("FindByInviteCode(unknown) = %v, want nil", missing)
	}
}

func TestDocstoreMembershipRepo_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewDocstoreMembershipRepo(store)

	now := time.Now().Truncate(time.Second)
	members := []*model.Membership{
		{UserID: "google:user-123", Nickname: "sunny-panda", JoinedAt: now, IsLeader: true},
		{UserID: "google:user-456", Nickname: "brave-rabbit", JoinedAt: now, IsLeader: false},
	}
	for _, m := range members {
		if err := store.Create(ctx, model.MembersCollection("group-1"), m.UserID, encodeMembership(m)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repo.ListByGroupID(ctx, "group-1")
	if err != nil {
		t.Fatalf("ListByGroupID() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(members) = %d, want 2", len(got))
	}
	if !got[0].IsLeader || got[0].UserID != "google:user-123" {
		t.Errorf("first member = %+v, want leader google:user-123", got[0])
	}

	// 別グループのコレクションは独立している
	other, err := repo.ListByGroupID(ctx, "group-2")
	if err != nil {
		t.Fatalf("ListByGroupID() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("len(other group members) = %d, want 0", len(other))
	}

	if err := repo.DeleteByGroupAndUser(ctx, "group-1", "google:user-456"); err != nil {
		t.Fatalf("DeleteByGroupAndUser() error = %v", err)
	}
	got, err = repo.ListByGroupID(ctx, "group-1")
	if err != nil {
		t.Fatalf("ListByGroupID() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(members) after delete = %d, want 1", len(got))
	}
}

func TestDocstoreSessionRepo_ExpiredSessionReturnsNil(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewDocstoreSessionRepo(store)

	expired := &model.Session{
		ID:        "session-expired",
		SubjectID: "google:user-123",
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	if err := repo.Create(ctx, expired); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.FindByID(ctx, expired.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindByID(expired) = %v, want nil", got)
	}
}

func TestDocstoreSessionRepo_DeleteBySubjectID(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewDocstoreSessionRepo(store)

	sessions := []*model.Session{
		{ID: "s1", SubjectID: "google:user-123", ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()},
		{ID: "s2", SubjectID: "google:user-123", ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()},
		{ID: "s3", SubjectID: "google:user-456", ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()},
	}
	for _, s := range sessions {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if err := repo.DeleteBySubjectID(ctx, "google:user-123"); err != nil {
		t.Fatalf("DeleteBySubjectID() error = %v", err)
	}

	for _, tt := range []struct {
		id   string
		want bool
	}{
		{"s1", false},
		{"s2", false},
		{"s3", true},
	} {
		got, err := repo.FindByID(ctx, tt.id)
		if err != nil {
			t.Fatalf("FindByID(%q) error = %v", tt.id, err)
		}
		if (got != nil) != tt.want {
			t.Errorf("FindByID(%q) = %v, want exists=%v", tt.id, got, tt.want)
		}
	}
}

func TestDocstoreBootstrapRepo_CreatesAllThreeRecords(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewDocstoreBootstrapRepo(store)

	profile := newTestProfile("google:user-123")
	group := newTestGroup("group-1", "AB12CD34")
	member := &model.Membership{UserID: profile.ID, Nickname: profile.Nickname, JoinedAt: profile.CreatedAt, IsLeader: true}

	if err := repo.CreateBootstrap(ctx, profile, group, member); err != nil {
		t.Fatalf("CreateBootstrap() error = %v", err)
	}

	if _, err := store.Get(ctx, model.CollectionUsers, profile.ID); err != nil {
		t.Errorf("profile was not created: %v", err)
	}
	if _, err := store.Get(ctx, model.CollectionGroups, group.ID); err != nil {
		t.Errorf("group was not created: %v", err)
	}
	if _, err := store.Get(ctx, model.MembersCollection(group.ID), member.UserID); err != nil {
		t.Errorf("membership was not created: %v", err)
	}
}

func TestDocstoreBootstrapRepo_FailureLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	store.FailNextBatch = errors.New("injected failure")
	repo := NewDocstoreBootstrapRepo(store)

	profile := newTestProfile("google:user-123")
	group := newTestGroup("group-1", "AB12CD34")
	member := &model.Membership{UserID: profile.ID, IsLeader: true}

	if err := repo.CreateBootstrap(ctx, profile, group, member); err == nil {
		t.Fatal("CreateBootstrap() should fail")
	}

	if _, err := store.Get(ctx, model.CollectionUsers, profile.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("profile exists after failed bootstrap: %v", err)
	}
	if _, err := store.Get(ctx, model.CollectionGroups, group.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("group exists after failed bootstrap: %v", err)
	}
}
