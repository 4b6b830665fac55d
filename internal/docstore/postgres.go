package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore はPostgreSQLのJSONB列をドキュメント本体として使うStore実装。
// documentsテーブルは (collection, id) を主キーとする。
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get は指定ドキュメントを取得する。存在しない場合はErrNotFoundを返す。
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	var fields Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s/%s: %w", collection, id, err)
	}

	return &Document{Collection: collection, ID: id, Fields: fields}, nil
}

// List はコレクション内の全ドキュメントを返す。
func (s *PostgresStore) List(ctx context.Context, collection string) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE collection = $1 ORDER BY id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []*Document{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document in %s: %w", collection, err)
		}
		var fields Fields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document %s/%s: %w", collection, id, err)
		}
		docs = append(docs, &Document{Collection: collection, ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection %s: %w", collection, err)
	}

	return docs, nil
}

// Create は新規ドキュメントを作成する。
func (s *PostgresStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	return s.exec(ctx, s.db.ExecContext, Write{Op: OpCreate, Collection: collection, ID: id, Fields: fields})
}

// Update は既存ドキュメントのフィールドをマージ更新する。
func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	return s.exec(ctx, s.db.ExecContext, Write{Op: OpUpdate, Collection: collection, ID: id, Fields: fields})
}

// Delete は指定ドキュメントを削除する。
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	return s.exec(ctx, s.db.ExecContext, Write{Op: OpDelete, Collection: collection, ID: id})
}

// BatchWrite は複数の書き込みを同一トランザクションで適用する。
func (s *PostgresStore) BatchWrite(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		if err := s.exec(ctx, tx.ExecContext, w); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// execer はsql.DBとsql.Txに共通のExecContextシグネチャ。
type execer func(ctx context.Context, query string, args ...any) (sql.Result, error)

// exec は1つの書き込み操作をSQLに変換して実行する。
func (s *PostgresStore) exec(ctx context.Context, run execer, w Write) error {
	switch w.Op {
	case OpCreate:
		raw, err := json.Marshal(w.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal document %s/%s: %w", w.Collection, w.ID, err)
		}
		if _, err := run(ctx,
			`INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3)`,
			w.Collection, w.ID, raw,
		); err != nil {
			return fmt.Errorf("failed to create document %s/%s: %w", w.Collection, w.ID, err)
		}
		return nil

	case OpUpdate:
		raw, err := json.Marshal(w.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal document %s/%s: %w", w.Collection, w.ID, err)
		}
		result, err := run(ctx,
			`UPDATE documents SET fields = fields || $3 WHERE collection = $1 AND id = $2`,
			w.Collection, w.ID, raw,
		)
		if err != nil {
			return fmt.Errorf("failed to update document %s/%s: %w", w.Collection, w.ID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil

	case OpDelete:
		if _, err := run(ctx,
			`DELETE FROM documents WHERE collection = $1 AND id = $2`,
			w.Collection, w.ID,
		); err != nil {
			return fmt.Errorf("failed to delete document %s/%s: %w", w.Collection, w.ID, err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported write op: %q", w.Op)
	}
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
