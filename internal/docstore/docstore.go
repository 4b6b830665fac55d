// Package docstore はコレクション/ドキュメント単位の汎用CRUDと
// 全件成功または全件失敗のバッチ書き込みを提供する。
// リトライは行わない。リトライするかどうかは呼び出し側（オーケストレータ）が決める。
package docstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound は指定されたドキュメントが存在しないことを示す。
var ErrNotFound = errors.New("document not found")

// Fields はドキュメントの中身を表す。JSONに変換可能な値のみを保持する。
type Fields map[string]any

// Document はコレクション内の1ドキュメントを表す。
type Document struct {
	Collection string
	ID         string
	Fields     Fields
}

// WriteOp はバッチ書き込み内の操作種別を表す。
type WriteOp string

const (
	// OpCreate は新規作成。既存IDに対してはエラーになる。
	OpCreate WriteOp = "create"
	// OpUpdate は既存ドキュメントのフィールド更新。
	OpUpdate WriteOp = "update"
	// OpDelete はドキュメント削除。
	OpDelete WriteOp = "delete"
)

// Write はバッチ書き込み内の1操作を表す。
type Write struct {
	Op         WriteOp
	Collection string
	ID         string
	Fields     Fields
}

// Store はドキュメントストアへのアクセスインターフェース。
type Store interface {
	// Get は指定ドキュメントを取得する。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, collection, id string) (*Document, error)

	// List はコレクション内の全ドキュメントを返す。空コレクションは空スライスを返す。
	List(ctx context.Context, collection string) ([]*Document, error)

	// Create は新規ドキュメントを作成する。
	Create(ctx context.Context, collection, id string, fields Fields) error

	// Update は既存ドキュメントのフィールドをマージ更新する。
	// 存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, collection, id string, fields Fields) error

	// Delete は指定ドキュメントを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, collection, id string) error

	// BatchWrite は複数の書き込みをアトミックに適用する。
	// 1つでも失敗した場合は全操作が取り消される。
	BatchWrite(ctx context.Context, writes []Write) error
}

// DecodeError はドキュメントのフィールドをドメイン構造体へ変換できなかったことを示す。
type DecodeError struct {
	Collection string
	ID         string
	Field      string
}

// Error はerrorインターフェースを実装する。
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s/%s: field %q", e.Collection, e.ID, e.Field)
}
