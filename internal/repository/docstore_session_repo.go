package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/model"
)

// DocstoreSessionRepo はドキュメントストアを使用するセッションリポジトリ。
type DocstoreSessionRepo struct {
	store docstore.Store
}

// NewDocstoreSessionRepo はDocstoreSessionRepoを生成する。
func NewDocstoreSessionRepo(store docstore.Store) *DocstoreSessionRepo {
	return &DocstoreSessionRepo{store: store}
}

// Create はセッションを作成する。
func (r *DocstoreSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if err := r.store.Create(ctx, model.CollectionSessions, session.ID, encodeSession(session)); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れ・未発見の場合はnilを返す。
func (r *DocstoreSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	doc, err := r.store.Get(ctx, model.CollectionSessions, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	session, err := decodeSession(doc)
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, nil
	}

	return session, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *DocstoreSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, model.CollectionSessions, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteBySubjectID は指定subjectの全セッションを削除する。
func (r *DocstoreSessionRepo) DeleteBySubjectID(ctx context.Context, subjectID string) error {
	docs, err := r.store.List(ctx, model.CollectionSessions)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	for _, doc := range docs {
		session, err := decodeSession(doc)
		if err != nil {
			return err
		}
		if session.SubjectID != subjectID {
			continue
		}
		if err := r.store.Delete(ctx, model.CollectionSessions, session.ID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}

	return nil
}

// compile-time interface check
var _ SessionRepository = (*DocstoreSessionRepo)(nil)
