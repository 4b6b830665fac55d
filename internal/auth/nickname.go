package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// デフォルトニックネームの語彙。ユーザーが変更するまでの仮の名前に使う。
var (
	nicknameAdjectives = []string{
		"sunny", "brave", "cozy", "merry", "swift",
		"gentle", "lucky", "calm", "shiny", "fluffy",
	}
	nicknameNouns = []string{
		"panda", "rabbit", "fox", "otter", "koala",
		"tiger", "whale", "hedgehog", "penguin", "squirrel",
	}
)

// GenerateNickname は形容詞+名詞+乱数3桁+subject idハッシュ末尾4桁の
// デフォルトニックネームを生成する。
// 人間に読みやすく、かつ同名衝突しにくい形にする。
// 同じ乱数源と同じsubject idに対して決定的である。
func GenerateNickname(r *rand.Rand, subjectID string) string {
	adj := nicknameAdjectives[r.Intn(len(nicknameAdjectives))]
	noun := nicknameNouns[r.Intn(len(nicknameNouns))]
	num := r.Intn(1000)

	sum := sha256.Sum256([]byte(subjectID))
	tail := hex.EncodeToString(sum[:])
	tail = tail[len(tail)-4:]

	return fmt.Sprintf("%s-%s-%03d-%s", adj, noun, num, tail)
}

// NewInviteCode はグループ参加用の8文字の招待コードを生成する。
// UUIDの先頭8桁（16進）を大文字化したもの。衝突確率は無視できるほど小さいため
// ストアへの一意性チェックは行わない。
func NewInviteCode() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// NewGroupID は新規グループのIDを生成する。
func NewGroupID() string {
	return uuid.New().String()
}
