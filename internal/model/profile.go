// Package model はドメインモデルを定義する。
package model

import "time"

// コレクション名。ドキュメントストア上の論理パスを表す。
// stickers, invites, appMissions は本コア外のフローが使用する。
const (
	CollectionUsers       = "users"
	CollectionGroups      = "groups"
	CollectionSessions    = "sessions"
	CollectionStickers    = "stickers"
	CollectionInvites     = "invites"
	CollectionAppMissions = "appMissions"
)

// MembersCollection はグループ配下のメンバーコレクションのパスを返す。
func MembersCollection(groupID string) string {
	return "groups/" + groupID + "/members"
}

// Profile はユーザーの永続レコードを表す。
// IDは外部IdPのsubject idから導出され、安定している。
type Profile struct {
	ID                string
	Nickname          string
	AvatarURL         string
	GroupID           string // 未所属の場合は空
	NicknameChangedAt time.Time
	CreatedAt         time.Time
}

// Group は家族グループの永続レコードを表す。
// メンバー一覧は groups/{id}/members コレクションに分離して保持する。
type Group struct {
	ID            string
	Name          string
	LeaderID      string
	InviteCode    string // 参加フローが使う8文字の公開コード
	NameChangedAt time.Time
	CreatedAt     time.Time
}

// Membership は(グループ, ユーザー)ごとの所属レコードを表す。
// グループ作成時点でIsLeader=trueのMembershipがちょうど1つ存在する。
type Membership struct {
	UserID   string
	Nickname string // 参加時点のニックネームのスナップショット
	JoinedAt time.Time
	IsLeader bool
}

// Session はバックエンドセッションを表す。
// サインイン成功時に発行され、current-identity照会の根拠となる。
type Session struct {
	ID        string
	SubjectID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// HydratedProfile はProfile・Group・Membershipを結合した完全なプロフィール。
// ハイドレーション（3段階の逐次フェッチ）の成果物。
type HydratedProfile struct {
	Profile
	GroupName string
	IsLeader  bool
}
