// Package repository はドキュメントストア上のデータ永続化インターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/homequest/internal/model"
)

// ProfileRepository はユーザープロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// Exists は指定IDのプロフィールが存在するかを返す。
	Exists(ctx context.Context, id string) (bool, error)

	// UpdateNickname はニックネームと変更日時を更新する。
	UpdateNickname(ctx context.Context, id, nickname string) error

	// DeleteByID は指定IDのプロフィールを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// GroupRepository はグループの永続化インターフェース。
type GroupRepository interface {
	// FindByID は指定IDのグループを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Group, error)

	// FindByInviteCode は招待コードでグループを検索する。見つからない場合はnilを返す。
	// コードの一意性はストア側に委ねられている。
	FindByInviteCode(ctx context.Context, code string) (*model.Group, error)
}

// MembershipRepository はグループ所属の永続化インターフェース。
type MembershipRepository interface {
	// ListByGroupID は指定グループの全メンバーを返す。
	ListByGroupID(ctx context.Context, groupID string) ([]*model.Membership, error)

	// DeleteByGroupAndUser は指定グループから指定ユーザーの所属を削除する。
	DeleteByGroupAndUser(ctx context.Context, groupID, userID string) error
}

// SessionRepository はバックエンドセッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れ・未発見の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteBySubjectID は指定subjectの全セッションを削除する。
	DeleteBySubjectID(ctx context.Context, subjectID string) error
}

// BootstrapRepository は新規ユーザーの初回レコード群の作成インターフェース。
type BootstrapRepository interface {
	// CreateBootstrap はProfile・Group・Membershipを1回のアトミックな
	// バッチ書き込みで作成する。部分的な作成は発生しない。
	CreateBootstrap(ctx context.Context, profile *model.Profile, group *model.Group, member *model.Membership) error
}
