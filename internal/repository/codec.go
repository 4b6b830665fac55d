package repository

import (
	"time"

	"github.com/hitoshi/homequest/internal/docstore"
	"github.com/hitoshi/homequest/internal/model"
)

// ドキュメントのフィールド↔ドメイン構造体の変換。
// 時刻はJSONとの互換性のためRFC3339文字列で保持する。

func encodeProfile(p *model.Profile) docstore.Fields {
	return docstore.Fields{
		"nickname":          p.Nickname,
		"avatarUrl":         p.AvatarURL,
		"groupId":           p.GroupID,
		"nicknameChangedAt": p.NicknameChangedAt.Format(time.RFC3339),
		"createdAt":         p.CreatedAt.Format(time.RFC3339),
	}
}

func decodeProfile(doc *docstore.Document) (*model.Profile, error) {
	p := &model.Profile{ID: doc.ID}
	var err error

	if p.Nickname, err = stringField(doc, "nickname"); err != nil {
		return nil, err
	}
	if p.GroupID, err = stringField(doc, "groupId"); err != nil {
		return nil, err
	}
	p.AvatarURL = optionalStringField(doc, "avatarUrl")
	if p.NicknameChangedAt, err = timeField(doc, "nicknameChangedAt"); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = timeField(doc, "createdAt"); err != nil {
		return nil, err
	}

	return p, nil
}

func encodeGroup(g *model.Group) docstore.Fields {
	return docstore.Fields{
		"name":          g.Name,
		"leaderId":      g.LeaderID,
		"inviteCode":    g.InviteCode,
		"nameChangedAt": g.NameChangedAt.Format(time.RFC3339),
		"createdAt":     g.CreatedAt.Format(time.RFC3339),
	}
}

func decodeGroup(doc *docstore.Document) (*model.Group, error) {
	g := &model.Group{ID: doc.ID}
	var err error

	if g.Name, err = stringField(doc, "name"); err != nil {
		return nil, err
	}
	if g.LeaderID, err = stringField(doc, "leaderId"); err != nil {
		return nil, err
	}
	if g.InviteCode, err = stringField(doc, "inviteCode"); err != nil {
		return nil, err
	}
	if g.NameChangedAt, err = timeField(doc, "nameChangedAt"); err != nil {
		return nil, err
	}
	if g.CreatedAt, err = timeField(doc, "createdAt"); err != nil {
		return nil, err
	}

	return g, nil
}

func encodeMembership(m *model.Membership) docstore.Fields {
	return docstore.Fields{
		"nickname": m.Nickname,
		"joinedAt": m.JoinedAt.Format(time.RFC3339),
		"isLeader": m.IsLeader,
	}
}

func decodeMembership(doc *docstore.Document) (*model.Membership, error) {
	m := &model.Membership{UserID: doc.ID}
	var err error

	if m.Nickname, err = stringField(doc, "nickname"); err != nil {
		return nil, err
	}
	if m.JoinedAt, err = timeField(doc, "joinedAt"); err != nil {
		return nil, err
	}
	if m.IsLeader, err = boolField(doc, "isLeader"); err != nil {
		return nil, err
	}

	return m, nil
}

func encodeSession(s *model.Session) docstore.Fields {
	return docstore.Fields{
		"subjectId": s.SubjectID,
		"expiresAt": s.ExpiresAt.Format(time.RFC3339),
		"createdAt": s.CreatedAt.Format(time.RFC3339),
	}
}

func decodeSession(doc *docstore.Document) (*model.Session, error) {
	s := &model.Session{ID: doc.ID}
	var err error

	if s.SubjectID, err = stringField(doc, "subjectId"); err != nil {
		return nil, err
	}
	if s.ExpiresAt, err = timeField(doc, "expiresAt"); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = timeField(doc, "createdAt"); err != nil {
		return nil, err
	}

	return s, nil
}

// --- フィールド取り出しヘルパー ---

func stringField(doc *docstore.Document, key string) (string, error) {
	v, ok := doc.Fields[key].(string)
	if !ok {
		return "", &docstore.DecodeError{Collection: doc.Collection, ID: doc.ID, Field: key}
	}
	return v, nil
}

// optionalStringField は省略可能な文字列フィールドを取り出す。欠落時は空文字を返す。
func optionalStringField(doc *docstore.Document, key string) string {
	v, _ := doc.Fields[key].(string)
	return v
}

func boolField(doc *docstore.Document, key string) (bool, error) {
	v, ok := doc.Fields[key].(bool)
	if !ok {
		return false, &docstore.DecodeError{Collection: doc.Collection, ID: doc.ID, Field: key}
	}
	return v, nil
}

func timeField(doc *docstore.Document, key string) (time.Time, error) {
	raw, ok := doc.Fields[key].(string)
	if !ok {
		return time.Time{}, &docstore.DecodeError{Collection: doc.Collection, ID: doc.ID, Field: key}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &docstore.DecodeError{Collection: doc.Collection, ID: doc.ID, Field: key}
	}
	return t, nil
}
