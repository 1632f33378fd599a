// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/notibac/internal/model"
)

// リポジトリが返す番兵エラー。サービス層でAPIErrorに変換する。
var (
	// ErrNotFound は更新・削除対象の行が存在しないことを表す。
	ErrNotFound = errors.New("repository: record not found")
	// ErrPhoneLimitExceeded はユーザーの電話番号数が上限に達していることを表す。
	ErrPhoneLimitExceeded = errors.New("repository: phone number limit exceeded")
	// ErrDuplicatePhone は同一ユーザーに同じ電話番号が既に登録されていることを表す。
	ErrDuplicatePhone = errors.New("repository: duplicate phone number")
	// ErrPreferenceLimitExceeded はユーザーの通知設定数が上限に達していることを表す。
	ErrPreferenceLimitExceeded = errors.New("repository: notification preference limit exceeded")
	// ErrUserNotFound はロック対象のユーザーが存在しないことを表す。
	ErrUserNotFound = errors.New("repository: user not found")
	// ErrDuplicateEmail は同じメールアドレスのユーザーが既に存在することを表す。
	ErrDuplicateEmail = errors.New("repository: duplicate email")
	// ErrVerificationConflict は読み取り後に検証状態が他の操作で変更されたことを表す。
	ErrVerificationConflict = errors.New("repository: verification state changed concurrently")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDと作成日時をuserに設定する。
	// メールアドレス重複時はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// CalendarRepository はセクター・カレンダー・収集日の永続化インターフェース。
type CalendarRepository interface {
	// ImportBatch は検証済みレコード群を単一トランザクションで反映する。
	// clearExistingがtrueの場合、同一トランザクション内で対象年の収集日とカレンダーを先に削除する。
	// いずれかのレコードで失敗した場合は全体をロールバックする。
	ImportBatch(ctx context.Context, year int, records []model.CalendarImport, clearExisting bool) (*model.ImportStats, error)

	// ListSectorsWithCalendars はセクターを所属カレンダー付きでコード順に返す。
	// yearが0の場合は全年度のカレンダーを含める。
	ListSectorsWithCalendars(ctx context.Context, year int) ([]model.SectorWithCalendars, error)

	// FindCalendarByID は指定IDのカレンダーを取得する。見つからない場合はnilを返す。
	FindCalendarByID(ctx context.Context, id string) (*model.Calendar, error)

	// ListCollectionDates はカレンダーの収集日を日付・種別順で返す。
	ListCollectionDates(ctx context.Context, calendarID string) ([]model.CollectionDate, error)
}

// PhoneRepository は電話番号データの永続化インターフェース。
// 電話番号集合を変更する操作はユーザー行をロックしたトランザクション内で行い、
// コミット前にプライマリ番号の一意性を再調整する。
type PhoneRepository interface {
	// FindByID は指定IDの電話番号を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.PhoneNumber, error)

	// ListByUserID はユーザーの電話番号をプライマリ優先・新しい順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.PhoneNumber, error)

	// Create は電話番号を登録する。重複時はErrDuplicatePhone、上限超過時はErrPhoneLimitExceededを返す。
	// 最初の1件はプライマリとして登録される。
	Create(ctx context.Context, phone *model.PhoneNumber, limit int) error

	// UpdateVerification は検証状態（is_verified, verification_code, code_sent_at）を保存する。
	// 番号が未検証で、code_sent_atが読み取り時の値prevSentAtのままの場合だけ更新する。
	// 条件を満たさない場合はErrVerificationConflict、行がない場合はErrNotFoundを返す。
	UpdateVerification(ctx context.Context, phone *model.PhoneNumber, prevSentAt *time.Time) error

	// Delete はユーザーの電話番号を削除する。該当行がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, userID, phoneID string) error

	// SetPrimary は指定番号をプライマリにし、同一ユーザーの他の番号を降格する。
	SetPrimary(ctx context.Context, userID, phoneID string) error

	// ReconcilePrimary は番号が1件以上ある場合にプライマリがちょうど1件になるよう調整する。
	ReconcilePrimary(ctx context.Context, userID string) error
}

// PreferenceRepository は通知設定の永続化インターフェース。
type PreferenceRepository interface {
	// FindByID は指定IDの通知設定を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.NotificationPreference, error)

	// ListByUserID はユーザーの通知設定を作成日時の新しい順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.NotificationPreference, error)

	// Create は通知設定を作成する。上限超過時はErrPreferenceLimitExceededを返す。
	Create(ctx context.Context, pref *model.NotificationPreference, limit int) error

	// Update は通知設定を更新する。該当行がない場合はErrNotFoundを返す。
	Update(ctx context.Context, pref *model.NotificationPreference) error

	// Delete はユーザーの通知設定を削除する。該当行がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, userID, prefID string) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
