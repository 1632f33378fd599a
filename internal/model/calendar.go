package model

import "time"

// CollectionType は収集種別を表す。
type CollectionType string

// 収集種別。並び順はインポートJSONのキー順と一致する。
const (
	CollectionGarbage        CollectionType = "garbage"
	CollectionRecycling      CollectionType = "recycling"
	CollectionCompost        CollectionType = "compost"
	CollectionYardWaste      CollectionType = "yard_waste"
	CollectionChristmasTrees CollectionType = "christmas_trees"
	CollectionBulkyWaste     CollectionType = "bulky_waste"
)

// CollectionTypes は全収集種別を固定順で返す。
func CollectionTypes() []CollectionType {
	return []CollectionType{
		CollectionGarbage,
		CollectionRecycling,
		CollectionCompost,
		CollectionYardWaste,
		CollectionChristmasTrees,
		CollectionBulkyWaste,
	}
}

// Valid は既知の収集種別かどうかを返す。
func (c CollectionType) Valid() bool {
	switch c {
	case CollectionGarbage, CollectionRecycling, CollectionCompost,
		CollectionYardWaste, CollectionChristmasTrees, CollectionBulkyWaste:
		return true
	}
	return false
}

// DisplayName は利用者向けの表示名を返す。
func (c CollectionType) DisplayName() string {
	switch c {
	case CollectionGarbage:
		return "Déchets"
	case CollectionRecycling:
		return "Récupération"
	case CollectionCompost:
		return "Compost"
	case CollectionYardWaste:
		return "Résidus verts"
	case CollectionChristmasTrees:
		return "Arbres de Noël"
	case CollectionBulkyWaste:
		return "Encombrants"
	}
	return string(c)
}

// Sector は収集セクター（地理的区域）を表す。
// Codeはファイル名から得たリテラル値（例: "01", "14a", "24-25-26"）で自然キーとなる。
type Sector struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Calendar はセクター・年・堆肥有無の組ごとの収集カレンダーを表す。
type Calendar struct {
	ID         string
	SectorID   string
	Year       int
	HasCompost bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CollectionDate はカレンダー上の1件の収集日を表す。
type CollectionDate struct {
	ID             string
	CalendarID     string
	CollectionType CollectionType
	Date           time.Time // 日付のみ（UTC 00:00）
}

// SectorWithCalendars はセクターとその全カレンダーを表す。一覧表示用。
type SectorWithCalendars struct {
	Sector
	Calendars []Calendar
}

// CalendarImport はインポート対象の1レコード（1 JSONファイル）を検証済みの形で表す。
type CalendarImport struct {
	SourceFile  string
	SectorCode  string
	SectorName  string
	Year        int
	HasCompost  bool
	Collections map[CollectionType][]time.Time
}

// ImportStats はインポート結果の件数を表す。
type ImportStats struct {
	SectorsCreated   int
	SectorsUpdated   int
	CalendarsCreated int
	CalendarsUpdated int
	DatesCreated     int
}
