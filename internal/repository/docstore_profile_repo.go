package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/model"
)

// DocstoreProfileRepo はドキュメントストアを使用するプロフィールリポジトリ。
type DocstoreProfileRepo struct {
	store docstore.Store
}

// NewDocstoreProfileRepo はDocstoreProfileRepoを生成する。
func NewDocstoreProfileRepo(store docstore.Store) *DocstoreProfileRepo {
	return &DocstoreProfileRepo{store: store}
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *DocstoreProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	doc, err := r.store.Get(ctx, model.CollectionUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return decodeProfile(doc)
}

// Exists は指定IDのプロフィールが存在するかを返す。
func (r *DocstoreProfileRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.store.Get(ctx, model.CollectionUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return true, nil
}

// UpdateNickname はニックネームと変更日時を更新する。
func (r *DocstoreProfileRepo) UpdateNickname(ctx context.Context, id, nickname string) error {
	err := r.store.Update(ctx, model.CollectionUsers, id, docstore.Fields{
		"nickname":          nickname,
		"nicknameChangedAt": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to update nickname: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのプロフィールを削除する。
func (r *DocstoreProfileRepo) DeleteByID(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, model.CollectionUsers, id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*DocstoreProfileRepo)(nil)
