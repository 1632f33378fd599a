package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/notibac/internal/model"
)

const preferenceColumns = `id, user_id, calendar_id, phone_number_id, timing, to_char(notification_time, 'HH24:MI'),
	notify_garbage, notify_recycling, notify_compost, notify_yard_waste, notify_christmas_trees, notify_bulky_waste,
	is_active, created_at, updated_at`

// PostgresPreferenceRepo はPostgreSQLを使用した通知設定リポジトリ。
type PostgresPreferenceRepo struct {
	db *sql.DB
}

// NewPostgresPreferenceRepo はPostgresPreferenceRepoを生成する。
func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

func scanPreference(row rowScanner) (*model.NotificationPreference, error) {
	p := &model.NotificationPreference{}
	var timing, at string
	err := row.Scan(
		&p.ID, &p.UserID, &p.CalendarID, &p.PhoneNumberID, &timing, &at,
		&p.NotifyGarbage, &p.NotifyRecycling, &p.NotifyCompost, &p.NotifyYardWaste,
		&p.NotifyChristmasTrees, &p.NotifyBulkyWaste,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Timing = model.Timing(timing)

	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("通知時刻の解析に失敗しました: %w", err)
	}
	p.NotificationTime = model.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
	return p, nil
}

// FindByID は指定IDの通知設定を取得する。見つからない場合はnilを返す。
func (r *PostgresPreferenceRepo) FindByID(ctx context.Context, id string) (*model.NotificationPreference, error) {
	p, err := scanPreference(r.db.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+` FROM notification_preferences WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("通知設定の取得に失敗しました: %w", err)
	}
	return p, nil
}

// ListByUserID はユーザーの通知設定を作成日時の新しい順で返す。
func (r *PostgresPreferenceRepo) ListByUserID(ctx context.Context, userID string) ([]*model.NotificationPreference, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+preferenceColumns+` FROM notification_preferences
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("通知設定一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var prefs []*model.NotificationPreference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("通知設定のスキャンに失敗しました: %w", err)
		}
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("通知設定一覧の読み取りに失敗しました: %w", err)
	}
	return prefs, nil
}

// Create は通知設定を作成する。ユーザー行をロックして件数上限を確認する。
func (r *PostgresPreferenceRepo) Create(ctx context.Context, pref *model.NotificationPreference, limit int) error {
	return withUserLock(ctx, r.db, pref.UserID, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM notification_preferences WHERE user_id = $1`, pref.UserID,
		).Scan(&count); err != nil {
			return fmt.Errorf("通知設定数の取得に失敗しました: %w", err)
		}
		if count >= limit {
			return ErrPreferenceLimitExceeded
		}

		err := tx.QueryRowContext(ctx,
			`INSERT INTO notification_preferences (
				user_id, calendar_id, phone_number_id, timing, notification_time,
				notify_garbage, notify_recycling, notify_compost, notify_yard_waste,
				notify_christmas_trees, notify_bulky_waste, is_active
			 ) VALUES ($1, $2, $3, $4, $5::time, $6, $7, $8, $9, $10, $11, $12)
			 RETURNING id, created_at, updated_at`,
			pref.UserID, pref.CalendarID, pref.PhoneNumberID, string(pref.Timing), pref.NotificationTime.String(),
			pref.NotifyGarbage, pref.NotifyRecycling, pref.NotifyCompost, pref.NotifyYardWaste,
			pref.NotifyChristmasTrees, pref.NotifyBulkyWaste, pref.IsActive,
		).Scan(&pref.ID, &pref.CreatedAt, &pref.UpdatedAt)
		if err != nil {
			return fmt.Errorf("通知設定の作成に失敗しました: %w", err)
		}
		return nil
	})
}

// Update は通知設定を更新する。該当行がない場合はErrNotFoundを返す。
func (r *PostgresPreferenceRepo) Update(ctx context.Context, pref *model.NotificationPreference) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE notification_preferences SET
			calendar_id = $3, phone_number_id = $4, timing = $5, notification_time = $6::time,
			notify_garbage = $7, notify_recycling = $8, notify_compost = $9, notify_yard_waste = $10,
			notify_christmas_trees = $11, notify_bulky_waste = $12, is_active = $13, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at`,
		pref.ID, pref.UserID, pref.CalendarID, pref.PhoneNumberID, string(pref.Timing), pref.NotificationTime.String(),
		pref.NotifyGarbage, pref.NotifyRecycling, pref.NotifyCompost, pref.NotifyYardWaste,
		pref.NotifyChristmasTrees, pref.NotifyBulkyWaste, pref.IsActive,
	).Scan(&pref.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("通知設定の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete はユーザーの通知設定を削除する。該当行がない場合はErrNotFoundを返す。
func (r *PostgresPreferenceRepo) Delete(ctx context.Context, userID, prefID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notification_preferences WHERE id = $1 AND user_id = $2`,
		prefID, userID,
	)
	if err != nil {
		return fmt.Errorf("通知設定の削除に失敗しました: %w", err)
	}
	return requireAffected(result)
}

// compile-time interface check
var _ PreferenceRepository = (*PostgresPreferenceRepo)(nil)
