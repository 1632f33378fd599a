package model

import (
	"sort"
	"time"
)

// PhoneNumber はユーザーのSMS通知先電話番号を表す。
// VerificationCodeとCodeSentAtは検証コードが未消化の間だけ設定される。
type PhoneNumber struct {
	ID               string
	UserID           string
	PhoneNumber      string // "+1" + 10桁
	IsPrimary        bool
	IsVerified       bool
	VerificationCode *string
	CodeSentAt       *time.Time
	CreatedAt        time.Time
}

// HasPendingCode は検証コードが発行済みかどうかを返す。
func (p *PhoneNumber) HasPendingCode() bool {
	return p.VerificationCode != nil && *p.VerificationCode != "" && p.CodeSentAt != nil
}

// SortPhones はプライマリ優先、作成日時の新しい順に並べ替える。
func SortPhones(phones []*PhoneNumber) {
	sort.SliceStable(phones, func(i, j int) bool {
		if phones[i].IsPrimary != phones[j].IsPrimary {
			return phones[i].IsPrimary
		}
		if !phones[i].CreatedAt.Equal(phones[j].CreatedAt) {
			return phones[i].CreatedAt.After(phones[j].CreatedAt)
		}
		return phones[i].ID > phones[j].ID
	})
}

// PrimaryChanges は1ユーザー分の電話番号集合について、プライマリをちょうど1件にするための変更を返す。
// プライマリが存在しなければ最も新しい番号を昇格し、複数あれば最も新しいプライマリ以外を降格する。
// 集合が空、またはすでに1件だけの場合は何も返さない。
func PrimaryChanges(phones []*PhoneNumber) (promoteID string, demoteIDs []string) {
	if len(phones) == 0 {
		return "", nil
	}

	ordered := make([]*PhoneNumber, len(phones))
	copy(ordered, phones)
	SortPhones(ordered)

	if !ordered[0].IsPrimary {
		// プライマリ不在: 先頭は最も新しい番号
		return ordered[0].ID, nil
	}

	for _, p := range ordered[1:] {
		if p.IsPrimary {
			demoteIDs = append(demoteIDs, p.ID)
		}
	}
	return "", demoteIDs
}
