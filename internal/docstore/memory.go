package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore はテスト用のインメモリStore実装。
// FailNextBatchなどのフック経由で障害注入ができる。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]Fields // collection -> id -> fields

	// FailNextBatch が非nilの場合、次のBatchWriteは書き込みを一切行わず
	// このエラーを返す（アトミック失敗の再現用）。
	FailNextBatch error
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]Fields)}
}

// Get は指定ドキュメントを取得する。存在しない場合はErrNotFoundを返す。
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Collection: collection, ID: id, Fields: cloneFields(fields)}, nil
}

// List はコレクション内の全ドキュメントをID昇順で返す。
func (s *MemoryStore) List(ctx context.Context, collection string) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data[collection]))
	for id := range s.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]*Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, &Document{Collection: collection, ID: id, Fields: cloneFields(s.data[collection][id])})
	}
	return docs, nil
}

// Create は新規ドキュメントを作成する。
func (s *MemoryStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(Write{Op: OpCreate, Collection: collection, ID: id, Fields: fields})
}

// Update は既存ドキュメントのフィールドをマージ更新する。
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(Write{Op: OpUpdate, Collection: collection, ID: id, Fields: fields})
}

// Delete は指定ドキュメントを削除する。
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(Write{Op: OpDelete, Collection: collection, ID: id})
}

// BatchWrite は複数の書き込みをアトミックに適用する。
// 途中で失敗した場合は適用済みの操作も巻き戻す。
func (s *MemoryStore) BatchWrite(ctx context.Context, writes []Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailNextBatch != nil {
		err := s.FailNextBatch
		s.FailNextBatch = nil
		return err
	}

	snapshot := s.snapshot()
	for _, w := range writes {
		if err := s.apply(w); err != nil {
			s.data = snapshot
			return err
		}
	}
	return nil
}

// apply は1操作をデータに適用する。呼び出し側でロックを保持していること。
func (s *MemoryStore) apply(w Write) error {
	switch w.Op {
	case OpCreate:
		if _, ok := s.data[w.Collection][w.ID]; ok {
			return fmt.Errorf("document already exists: %s/%s", w.Collection, w.ID)
		}
		if s.data[w.Collection] == nil {
			s.data[w.Collection] = make(map[string]Fields)
		}
		s.data[w.Collection][w.ID] = cloneFields(w.Fields)
		return nil

	case OpUpdate:
		existing, ok := s.data[w.Collection][w.ID]
		if !ok {
			return ErrNotFound
		}
		for k, v := range w.Fields {
			existing[k] = v
		}
		return nil

	case OpDelete:
		delete(s.data[w.Collection], w.ID)
		return nil

	default:
		return fmt.Errorf("unsupported write op: %q", w.Op)
	}
}

// snapshot は全データのディープコピーを返す。
func (s *MemoryStore) snapshot() map[string]map[string]Fields {
	out := make(map[string]map[string]Fields, len(s.data))
	for col, docs := range s.data {
		out[col] = make(map[string]Fields, len(docs))
		for id, fields := range docs {
			out[col][id] = cloneFields(fields)
		}
	}
	return out
}

// cloneFields はFieldsの浅いコピーを返す。
func cloneFields(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
