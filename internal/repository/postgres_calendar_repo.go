package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/hitoshi/notibac/internal/model"
)

// insertChunkSize は収集日の一括INSERT1文あたりの最大行数。
// PostgreSQLのバインドパラメータ上限（65535）に収まるよう設定する。
const insertChunkSize = 1000

// psql はPostgreSQLのプレースホルダ形式（$1, $2, ...）を使うクエリビルダー。
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgresCalendarRepo はPostgreSQLを使用したカレンダーリポジトリ。
type PostgresCalendarRepo struct {
	db *sql.DB
}

// NewPostgresCalendarRepo はPostgresCalendarRepoを生成する。
func NewPostgresCalendarRepo(db *sql.DB) *PostgresCalendarRepo {
	return &PostgresCalendarRepo{db: db}
}

// ImportBatch は検証済みレコード群を単一トランザクションで反映する。
func (r *PostgresCalendarRepo) ImportBatch(ctx context.Context, year int, records []model.CalendarImport, clearExisting bool) (*model.ImportStats, error) {
	stats := &model.ImportStats{}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		// 1. 対象年の既存データを削除（オプション）
		if clearExisting {
			if err := clearYear(ctx, tx, year); err != nil {
				return err
			}
		}

		// 2. レコードごとにセクター・カレンダーをUPSERTし、収集日を置き換える
		for i := range records {
			if err := importRecord(ctx, tx, &records[i], stats); err != nil {
				return fmt.Errorf("%s: %w", records[i].SourceFile, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func clearYear(ctx context.Context, tx *sql.Tx, year int) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM collection_dates WHERE calendar_id IN (SELECT id FROM calendars WHERE year = $1)`, year,
	); err != nil {
		return fmt.Errorf("収集日の削除に失敗しました: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendars WHERE year = $1`, year); err != nil {
		return fmt.Errorf("カレンダーの削除に失敗しました: %w", err)
	}
	return nil
}

func importRecord(ctx context.Context, tx *sql.Tx, rec *model.CalendarImport, stats *model.ImportStats) error {
	// セクター: codeで検索し、存在すれば名称を更新する
	var sectorID string
	var sectorCreated bool
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sectors (code, name) VALUES ($1, $2)
		 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		 RETURNING id, (xmax = 0)`,
		rec.SectorCode, rec.SectorName,
	).Scan(&sectorID, &sectorCreated)
	if err != nil {
		return fmt.Errorf("セクターのUPSERTに失敗しました: %w", err)
	}
	if sectorCreated {
		stats.SectorsCreated++
	} else {
		stats.SectorsUpdated++
	}

	// カレンダー: (sector, year, has_compost)で検索する
	var calendarID string
	var calendarCreated bool
	err = tx.QueryRowContext(ctx,
		`INSERT INTO calendars (sector_id, year, has_compost) VALUES ($1, $2, $3)
		 ON CONFLICT (sector_id, year, has_compost) DO UPDATE SET updated_at = now()
		 RETURNING id, (xmax = 0)`,
		sectorID, rec.Year, rec.HasCompost,
	).Scan(&calendarID, &calendarCreated)
	if err != nil {
		return fmt.Errorf("カレンダーのUPSERTに失敗しました: %w", err)
	}

	if calendarCreated {
		stats.CalendarsCreated++
	} else {
		stats.CalendarsUpdated++
		// 既存カレンダーの収集日は差分マージせず全置換する
		if _, err := tx.ExecContext(ctx, `DELETE FROM collection_dates WHERE calendar_id = $1`, calendarID); err != nil {
			return fmt.Errorf("既存収集日の削除に失敗しました: %w", err)
		}
	}

	n, err := insertCollectionDates(ctx, tx, calendarID, rec)
	if err != nil {
		return err
	}
	stats.DatesCreated += n
	return nil
}

// insertCollectionDates は全種別の収集日を複数行INSERTで挿入し、挿入件数を返す。
func insertCollectionDates(ctx context.Context, tx *sql.Tx, calendarID string, rec *model.CalendarImport) (int, error) {
	type row struct {
		collectionType model.CollectionType
		date           string
	}
	var rows []row
	for _, ct := range model.CollectionTypes() {
		for _, d := range rec.Collections[ct] {
			rows = append(rows, row{ct, d.Format("2006-01-02")})
		}
	}

	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))

		q := psql.Insert("collection_dates").Columns("calendar_id", "collection_type", "date")
		for _, rw := range rows[start:end] {
			q = q.Values(calendarID, string(rw.collectionType), rw.date)
		}
		query, args, err := q.ToSql()
		if err != nil {
			return 0, fmt.Errorf("収集日INSERT文の構築に失敗しました: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("収集日の挿入に失敗しました: %w", err)
		}
	}

	return len(rows), nil
}

// ListSectorsWithCalendars はセクターを所属カレンダー付きでコード順に返す。
func (r *PostgresCalendarRepo) ListSectorsWithCalendars(ctx context.Context, year int) ([]model.SectorWithCalendars, error) {
	q := psql.Select(
		"s.id", "s.code", "s.name", "s.created_at", "s.updated_at",
		"c.id", "c.year", "c.has_compost", "c.created_at", "c.updated_at",
	).From("sectors s")
	if year > 0 {
		q = q.LeftJoin("calendars c ON c.sector_id = s.id AND c.year = ?", year)
	} else {
		q = q.LeftJoin("calendars c ON c.sector_id = s.id")
	}
	q = q.OrderBy("s.code", "c.year DESC", "c.has_compost DESC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("セクター一覧クエリの構築に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("セクター一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []model.SectorWithCalendars
	for rows.Next() {
		var s model.Sector
		var calID sql.NullString
		var calYear sql.NullInt64
		var calCompost sql.NullBool
		var calCreated, calUpdated sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.Code, &s.Name, &s.CreatedAt, &s.UpdatedAt,
			&calID, &calYear, &calCompost, &calCreated, &calUpdated,
		); err != nil {
			return nil, fmt.Errorf("セクターのスキャンに失敗しました: %w", err)
		}

		if len(result) == 0 || result[len(result)-1].ID != s.ID {
			result = append(result, model.SectorWithCalendars{Sector: s})
		}
		if calID.Valid {
			last := &result[len(result)-1]
			last.Calendars = append(last.Calendars, model.Calendar{
				ID:         calID.String,
				SectorID:   s.ID,
				Year:       int(calYear.Int64),
				HasCompost: calCompost.Bool,
				CreatedAt:  calCreated.Time,
				UpdatedAt:  calUpdated.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("セクター一覧の読み取りに失敗しました: %w", err)
	}
	return result, nil
}

// FindCalendarByID は指定IDのカレンダーを取得する。見つからない場合はnilを返す。
func (r *PostgresCalendarRepo) FindCalendarByID(ctx context.Context, id string) (*model.Calendar, error) {
	c := &model.Calendar{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sector_id, year, has_compost, created_at, updated_at FROM calendars WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.SectorID, &c.Year, &c.HasCompost, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カレンダーの取得に失敗しました: %w", err)
	}
	return c, nil
}

// ListCollectionDates はカレンダーの収集日を日付・種別順で返す。
func (r *PostgresCalendarRepo) ListCollectionDates(ctx context.Context, calendarID string) ([]model.CollectionDate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, collection_type, date
		 FROM collection_dates
		 WHERE calendar_id = $1
		 ORDER BY date, collection_type`,
		calendarID,
	)
	if err != nil {
		return nil, fmt.Errorf("収集日一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var dates []model.CollectionDate
	for rows.Next() {
		var d model.CollectionDate
		var ct string
		if err := rows.Scan(&d.ID, &d.CalendarID, &ct, &d.Date); err != nil {
			return nil, fmt.Errorf("収集日のスキャンに失敗しました: %w", err)
		}
		d.CollectionType = model.CollectionType(ct)
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("収集日一覧の読み取りに失敗しました: %w", err)
	}
	return dates, nil
}

// compile-time interface check
var _ CalendarRepository = (*PostgresCalendarRepo)(nil)
