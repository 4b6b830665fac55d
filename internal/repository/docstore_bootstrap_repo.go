package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/model"
)

// DocstoreBootstrapRepo は新規ユーザーの初回レコード群をアトミックに作成する。
type DocstoreBootstrapRepo struct {
	store docstore.Store
}

// NewDocstoreBootstrapRepo はDocstoreBootstrapRepoを生成する。
func NewDocstoreBootstrapRepo(store docstore.Store) *DocstoreBootstrapRepo {
	return &DocstoreBootstrapRepo{store: store}
}

// CreateBootstrap はProfile・Group・Membershipを1回のバッチ書き込みで作成する。
// 1件でも失敗した場合はすべて取り消される。
func (r *DocstoreBootstrapRepo) CreateBootstrap(ctx context.Context, profile *model.Profile, group *model.Group, member *model.Membership) error {
	writes := []docstore.Write{
		{Op: docstore.OpCreate, Collection: model.CollectionUsers, ID: profile.ID, Fields: encodeProfile(profile)},
		{Op: docstore.OpCreate, Collection: model.CollectionGroups, ID: group.ID, Fields: encodeGroup(group)},
		{Op: docstore.OpCreate, Collection: model.MembersCollection(group.ID), ID: member.UserID, Fields: encodeMembership(member)},
	}

	if err := r.store.BatchWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to create bootstrap records: %w", err)
	}

	return nil
}

// compile-time interface check
var _ BootstrapRepository = (*DocstoreBootstrapRepo)(nil)
