package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/model"
)

// DocstoreGroupRepo はドキュメントストアを使用するグループリポジトリ。
type DocstoreGroupRepo struct {
	store docstore.Store
}

// NewDocstoreGroupRepo はDocstoreGroupRepoを生成する。
func NewDocstoreGroupRepo(store docstore.Store) *DocstoreGroupRepo {
	return &DocstoreGroupRepo{store: store}
}

// FindByID は指定IDのグループを取得する。見つからない場合はnilを返す。
func (r *DocstoreGroupRepo) FindByID(ctx context.Context, id string) (*model.Group, error) {
	doc, err := r.store.Get(ctx, model.CollectionGroups, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	return decodeGroup(doc)
}

// FindByInviteCode は招待コードでグループを検索する。見つからない場合はnilを返す。
// ドキュメントストアはコレクション全走査になるため、コードは一意である前提。
func (r *DocstoreGroupRepo) FindByInviteCode(ctx context.Context, code string) (*model.Group, error) {
	docs, err := r.store.List(ctx, model.CollectionGroups)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	for _, doc := range docs {
		g, err := decodeGroup(doc)
		if err != nil {
			return nil, err
		}
		if g.InviteCode == code {
			return g, nil
		}
	}

	return nil, nil
}

// compile-time interface check
var _ GroupRepository = (*DocstoreGroupRepo)(nil)
