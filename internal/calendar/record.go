// Package calendar は抽出済みカレンダーJSONの読み込み・検証・インポートと、
// セクター・収集日の参照を提供する。
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/notibac/internal/model"
)

// dateLayout は収集日の唯一許容される書式。
const dateLayout = "2006-01-02"

// DataIntegrityError はインポート対象ファイルの内容が不正であることを表す。
// バッチインポート全体を中止させる唯一のエラー種別。
type DataIntegrityError struct {
	File   string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error in %s: %s", e.File, e.Reason)
}

// RawRecord は検証前のインポートJSON 1ファイル分を表す。
// 必須フィールドの欠落を検出するためポインタで受ける。
type RawRecord struct {
	File        string              `json:"-"`
	Sector      *string             `json:"sector" validate:"required"`
	SectorName  *string             `json:"sector_name" validate:"required"`
	Year        *int                `json:"year" validate:"required"`
	HasCompost  *bool               `json:"has_compost" validate:"required"`
	Collections map[string][]string `json:"collections"`
}

var validate = newValidator()

// newValidator はエラーにJSONのキー名を使うvalidatorを返す。
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadDirectory はディレクトリ直下の*.jsonをファイル名順に読み込む。
// ディレクトリが存在しない場合やJSONファイルが1件もない場合はエラーを返す。
// JSONとして解釈できないファイルはDataIntegrityErrorになる。
func LoadDirectory(dir string) ([]RawRecord, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("directory %s does not exist", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no JSON files found in %s", dir)
	}
	sort.Strings(names)

	records := make([]RawRecord, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var rec RawRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, &DataIntegrityError{File: name, Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
		rec.File = name
		records = append(records, rec)
	}
	return records, nil
}

// ParseRecord は必須フィールドと日付書式を検証し、インポート用レコードに変換する。
// 不明な収集種別や YYYY-MM-DD 以外の日付はDataIntegrityErrorになる。
func ParseRecord(raw RawRecord) (model.CalendarImport, error) {
	// 1. 必須フィールドの検証
	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field()
			}
			return model.CalendarImport{}, &DataIntegrityError{
				File:   raw.File,
				Reason: "missing required fields: " + strings.Join(fields, ", "),
			}
		}
		return model.CalendarImport{}, &DataIntegrityError{File: raw.File, Reason: err.Error()}
	}

	rec := model.CalendarImport{
		SourceFile:  raw.File,
		SectorCode:  *raw.Sector,
		SectorName:  *raw.SectorName,
		Year:        *raw.Year,
		HasCompost:  *raw.HasCompost,
		Collections: make(map[model.CollectionType][]time.Time, len(raw.Collections)),
	}

	// 2. 収集種別と日付の検証（エラー内容を安定させるため種別名順に処理）
	keys := make([]string, 0, len(raw.Collections))
	for k := range raw.Collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		ct := model.CollectionType(k)
		if !ct.Valid() {
			return model.CalendarImport{}, &DataIntegrityError{
				File:   raw.File,
				Reason: fmt.Sprintf("unknown collection type %q", k),
			}
		}
		dates := make([]time.Time, 0, len(raw.Collections[k]))
		for _, s := range raw.Collections[k] {
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				return model.CalendarImport{}, &DataIntegrityError{
					File:   raw.File,
					Reason: fmt.Sprintf("invalid %s date %q", k, s),
				}
			}
			dates = append(dates, d)
		}
		rec.Collections[ct] = dates
	}

	return rec, nil
}
