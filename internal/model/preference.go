package model

import "time"

// Timing は通知タイミングを表す。
type Timing string

const (
	// TimingDayBefore は収集日前日に通知する。
	TimingDayBefore Timing = "day_before"
	// TimingDayOf は収集日当日に通知する。
	TimingDayOf Timing = "day_of"
)

// TimeOfDay は通知時刻（時・分）を表す。
type TimeOfDay struct {
	Hour   int
	Minute int
}

// DefaultNotificationTime は通知時刻のデフォルト値（18:00）。
var DefaultNotificationTime = TimeOfDay{Hour: 18, Minute: 0}

// String はHH:MM形式の文字列を返す。
func (t TimeOfDay) String() string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("15:04")
}

// NotificationPreference はユーザーの通知設定を表す。
// カレンダー・電話番号の削除時にはDB側でCASCADE削除される。
type NotificationPreference struct {
	ID                   string
	UserID               string
	CalendarID           string
	PhoneNumberID        string
	Timing               Timing
	NotificationTime     TimeOfDay
	NotifyGarbage        bool
	NotifyRecycling      bool
	NotifyCompost        bool
	NotifyYardWaste      bool
	NotifyChristmasTrees bool
	NotifyBulkyWaste     bool
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewNotificationPreference はデフォルト値を設定した通知設定を返す。
func NewNotificationPreference(userID, calendarID, phoneID string) *NotificationPreference {
	return &NotificationPreference{
		UserID:               userID,
		CalendarID:           calendarID,
		PhoneNumberID:        phoneID,
		Timing:               TimingDayBefore,
		NotificationTime:     DefaultNotificationTime,
		NotifyGarbage:        true,
		NotifyRecycling:      true,
		NotifyCompost:        true,
		NotifyYardWaste:      true,
		NotifyChristmasTrees: true,
		NotifyBulkyWaste:     true,
		IsActive:             true,
	}
}

// Enabled は指定した収集種別の通知が有効かどうかを返す。
func (p *NotificationPreference) Enabled(c CollectionType) bool {
	switch c {
	case CollectionGarbage:
		return p.NotifyGarbage
	case CollectionRecycling:
		return p.NotifyRecycling
	case CollectionCompost:
		return p.NotifyCompost
	case CollectionYardWaste:
		return p.NotifyYardWaste
	case CollectionChristmasTrees:
		return p.NotifyChristmasTrees
	case CollectionBulkyWaste:
		return p.NotifyBulkyWaste
	}
	return false
}

// EnabledTypes は通知が有効な収集種別を固定順で返す。
func (p *NotificationPreference) EnabledTypes() []CollectionType {
	var types []CollectionType
	for _, c := range CollectionTypes() {
		if p.Enabled(c) {
			types = append(types, c)
		}
	}
	return types
}
