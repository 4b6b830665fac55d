package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/model"
)

// DocstoreMembershipRepo はドキュメントストアを使用する所属リポジトリ。
// メンバーは groups/{id}/members コレクションにユーザーIDをキーとして保持する。
type DocstoreMembershipRepo struct {
	store docstore.Store
}

// NewDocstoreMembershipRepo はDocstoreMembershipRepoを生成する。
func NewDocstoreMembershipRepo(store docstore.Store) *DocstoreMembershipRepo {
	return &DocstoreMembershipRepo{store: store}
}

// ListByGroupID は指定グループの全メンバーを返す。
func (r *DocstoreMembershipRepo) ListByGroupID(ctx context.Context, groupID string) ([]*model.Membership, error) {
	docs, err := r.store.List(ctx, model.MembersCollection(groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]*model.Membership, 0, len(docs))
	for _, doc := range docs {
		m, err := decodeMembership(doc)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, nil
}

// DeleteByGroupAndUser は指定グループから指定ユーザーの所属を削除する。
func (r *DocstoreMembershipRepo) DeleteByGroupAndUser(ctx context.Context, groupID, userID string) error {
	if err := r.store.Delete(ctx, model.MembersCollection(groupID), userID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MembershipRepository = (*DocstoreMembershipRepo)(nil)
