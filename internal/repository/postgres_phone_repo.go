package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/notibac/internal/model"
	"github.com/lib/pq"
)

const phoneColumns = `id, user_id, phone_number, is_primary, is_verified, verification_code, code_sent_at, created_at`

// PostgresPhoneRepo はPostgreSQLを使用した電話番号リポジトリ。
type PostgresPhoneRepo struct {
	db *sql.DB
}

// NewPostgresPhoneRepo はPostgresPhoneRepoを生成する。
func NewPostgresPhoneRepo(db *sql.DB) *PostgresPhoneRepo {
	return &PostgresPhoneRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhone(row rowScanner) (*model.PhoneNumber, error) {
	p := &model.PhoneNumber{}
	var code sql.NullString
	var sentAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &p.PhoneNumber, &p.IsPrimary, &p.IsVerified, &code, &sentAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	if code.Valid {
		p.VerificationCode = &code.String
	}
	if sentAt.Valid {
		p.CodeSentAt = &sentAt.Time
	}
	return p, nil
}

// FindByID は指定IDの電話番号を取得する。見つからない場合はnilを返す。
func (r *PostgresPhoneRepo) FindByID(ctx context.Context, id string) (*model.PhoneNumber, error) {
	p, err := scanPhone(r.db.QueryRowContext(ctx,
		`SELECT `+phoneColumns+` FROM phone_numbers WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("電話番号の取得に失敗しました: %w", err)
	}
	return p, nil
}

// ListByUserID はユーザーの電話番号をプライマリ優先・新しい順で返す。
func (r *PostgresPhoneRepo) ListByUserID(ctx context.Context, userID string) ([]*model.PhoneNumber, error) {
	return listPhones(ctx, r.db, userID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listPhones(ctx context.Context, q queryer, userID string) ([]*model.PhoneNumber, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+phoneColumns+` FROM phone_numbers
		 WHERE user_id = $1
		 ORDER BY is_primary DESC, created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("電話番号一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var phones []*model.PhoneNumber
	for rows.Next() {
		p, err := scanPhone(rows)
		if err != nil {
			return nil, fmt.Errorf("電話番号のスキャンに失敗しました: %w", err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("電話番号一覧の読み取りに失敗しました: %w", err)
	}
	return phones, nil
}

// Create は電話番号を登録する。
// ユーザー行をロックした上で重複・上限を確認し、最初の1件であればプライマリとする。
func (r *PostgresPhoneRepo) Create(ctx context.Context, phone *model.PhoneNumber, limit int) error {
	return withUserLock(ctx, r.db, phone.UserID, func(tx *sql.Tx) error {
		// 1. 既存番号の確認
		existing, err := listPhones(ctx, tx, phone.UserID)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if p.PhoneNumber == phone.PhoneNumber {
				return ErrDuplicatePhone
			}
		}
		if len(existing) >= limit {
			return ErrPhoneLimitExceeded
		}

		// 2. 挿入
		phone.IsPrimary = len(existing) == 0
		err = tx.QueryRowContext(ctx,
			`INSERT INTO phone_numbers (user_id, phone_number, is_primary, is_verified, verification_code, code_sent_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			phone.UserID, phone.PhoneNumber, phone.IsPrimary, phone.IsVerified,
			phone.VerificationCode, phone.CodeSentAt, phone.CreatedAt,
		).Scan(&phone.ID)
		if isUniqueViolation(err) {
			return ErrDuplicatePhone
		}
		if err != nil {
			return fmt.Errorf("電話番号の登録に失敗しました: %w", err)
		}

		// 3. プライマリの再調整
		return reconcilePrimaryTx(ctx, tx, phone.UserID)
	})
}

// UpdateVerification は検証状態を保存する。
// 検証済みへの遷移は終端のため、検証済みの行やコードが再発行された行は更新しない。
func (r *PostgresPhoneRepo) UpdateVerification(ctx context.Context, phone *model.PhoneNumber, prevSentAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE phone_numbers
		 SET is_verified = $2, verification_code = $3, code_sent_at = $4
		 WHERE id = $1 AND is_verified = FALSE AND code_sent_at IS NOT DISTINCT FROM $5::timestamptz`,
		phone.ID, phone.IsVerified, phone.VerificationCode, phone.CodeSentAt, prevSentAt,
	)
	if err != nil {
		return fmt.Errorf("検証状態の更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("影響行数の取得に失敗しました: %w", err)
	}
	if n > 0 {
		return nil
	}

	// 0行: 行がないのか、状態が変わったのかを区別する
	current, err := r.FindByID(ctx, phone.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	return ErrVerificationConflict
}

// Delete はユーザーの電話番号を削除し、残った番号のプライマリを再調整する。
// 紐づく通知設定はCASCADE削除される。
func (r *PostgresPhoneRepo) Delete(ctx context.Context, userID, phoneID string) error {
	return withUserLock(ctx, r.db, userID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM phone_numbers WHERE id = $1 AND user_id = $2`,
			phoneID, userID,
		)
		if err != nil {
			return fmt.Errorf("電話番号の削除に失敗しました: %w", err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}
		return reconcilePrimaryTx(ctx, tx, userID)
	})
}

// SetPrimary は指定番号をプライマリにし、同一ユーザーの他の番号を降格する。
func (r *PostgresPhoneRepo) SetPrimary(ctx context.Context, userID, phoneID string) error {
	return withUserLock(ctx, r.db, userID, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM phone_numbers WHERE id = $1 AND user_id = $2)`,
			phoneID, userID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("電話番号の存在確認に失敗しました: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE phone_numbers SET is_primary = (id = $2) WHERE user_id = $1`,
			userID, phoneID,
		); err != nil {
			return fmt.Errorf("プライマリ番号の更新に失敗しました: %w", err)
		}
		return reconcilePrimaryTx(ctx, tx, userID)
	})
}

// ReconcilePrimary は番号が1件以上ある場合にプライマリがちょうど1件になるよう調整する。
func (r *PostgresPhoneRepo) ReconcilePrimary(ctx context.Context, userID string) error {
	return withUserLock(ctx, r.db, userID, func(tx *sql.Tx) error {
		return reconcilePrimaryTx(ctx, tx, userID)
	})
}

// reconcilePrimaryTx はロック済みトランザクション内でプライマリを再調整する。
func reconcilePrimaryTx(ctx context.Context, tx *sql.Tx, userID string) error {
	phones, err := listPhones(ctx, tx, userID)
	if err != nil {
		return err
	}

	promoteID, demoteIDs := model.PrimaryChanges(phones)
	if promoteID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE phone_numbers SET is_primary = TRUE WHERE id = $1`, promoteID,
		); err != nil {
			return fmt.Errorf("プライマリ番号の昇格に失敗しました: %w", err)
		}
	}
	if len(demoteIDs) > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE phone_numbers SET is_primary = FALSE WHERE id = ANY($1::uuid[])`,
			pq.Array(demoteIDs),
		); err != nil {
			return fmt.Errorf("プライマリ番号の降格に失敗しました: %w", err)
		}
	}
	return nil
}

// requireAffected は更新・削除が1行以上に作用したことを確認する。
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("影響行数の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ PhoneRepository = (*PostgresPhoneRepo)(nil)
