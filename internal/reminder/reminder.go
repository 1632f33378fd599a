// Package reminder は通知設定とカレンダーから通知時刻を導出する。
// 通知時刻は保存せず、参照のたびに計算する。
package reminder

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/repository"
)

// DefaultTimezone は通知時刻を解釈する既定のタイムゾーン。
const DefaultTimezone = "America/Toronto"

// Reminder は1件の通知予定を表す。
type Reminder struct {
	CollectionType model.CollectionType `json:"collection_type"`
	CollectionDate time.Time            `json:"collection_date"`
	At             time.Time            `json:"at"`
}

// Instants は通知設定に基づく通知時刻を収集日の順に返す。
// 無効な設定では何も返さず、通知がオフの収集種別は飛ばす。
// 前日通知の場合は収集日の前日、当日通知の場合は収集日のnotification_timeをlocで解釈する。
func Instants(pref *model.NotificationPreference, dates []model.CollectionDate, loc *time.Location) iter.Seq[Reminder] {
	return func(yield func(Reminder) bool) {
		if pref == nil || !pref.IsActive {
			return
		}
		offset := 0
		if pref.Timing == model.TimingDayBefore {
			offset = -1
		}
		for _, d := range dates {
			if !pref.Enabled(d.CollectionType) {
				continue
			}
			y, m, day := d.Date.Date()
			at := time.Date(y, m, day+offset, pref.NotificationTime.Hour, pref.NotificationTime.Minute, 0, 0, loc)
			if !yield(Reminder{CollectionType: d.CollectionType, CollectionDate: d.Date, At: at}) {
				return
			}
		}
	}
}

// Upcoming はfrom以降（from自身を含む）の通知を時刻順に最大limit件返す。
// limitが0以下の場合はすべて返す。
func Upcoming(seq iter.Seq[Reminder], from time.Time, limit int) []Reminder {
	var out []Reminder
	for r := range seq {
		if !r.At.Before(from) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Reminder) int {
		return a.At.Compare(b.At)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Service は通知設定ごとの通知予定を参照するサービス層。
type Service struct {
	prefRepo     repository.PreferenceRepository
	calendarRepo repository.CalendarRepository
	loc          *time.Location
}

// NewService はServiceを生成する。locがnilの場合はUTCを使う。
func NewService(prefRepo repository.PreferenceRepository, calendarRepo repository.CalendarRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{prefRepo: prefRepo, calendarRepo: calendarRepo, loc: loc}
}

// Upcoming はユーザーの通知設定について、from以降の通知予定を返す。
func (s *Service) Upcoming(ctx context.Context, userID, prefID string, from time.Time, limit int) ([]Reminder, error) {
	pref, err := s.prefRepo.FindByID(ctx, prefID)
	if err != nil {
		return nil, fmt.Errorf("通知設定の取得に失敗しました: %w", err)
	}
	if pref == nil || pref.UserID != userID {
		return nil, model.NewPreferenceNotFoundError(prefID)
	}

	dates, err := s.calendarRepo.ListCollectionDates(ctx, pref.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("収集日の取得に失敗しました: %w", err)
	}

	return Upcoming(Instants(pref, dates, s.loc), from, limit), nil
}
