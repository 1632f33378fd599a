// Package cleanup は古い年度のカレンダーを削除する定期ジョブを提供する。
// 収集日と、そのカレンダーを参照する通知設定はCASCADE削除で処理される。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// RetentionJob は保持期間を過ぎた年度のカレンダーを削除するジョブ。
type RetentionJob struct {
	db     Executor
	logger *slog.Logger
	now    func() time.Time

	// RetentionYears は現在年より前に保持する年数（デフォルト: 1、つまり前年まで保持）。
	RetentionYears int
}

// NewRetentionJob は新しいRetentionJobを生成する。
func NewRetentionJob(db Executor, logger *slog.Logger) *RetentionJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionJob{
		db:             db,
		logger:         logger,
		now:            time.Now,
		RetentionYears: 1,
	}
}

// CutoffYear はこの年より前のカレンダーが削除対象になる年を返す。
func (j *RetentionJob) CutoffYear() int {
	return j.now().Year() - j.RetentionYears
}

// Run は保持期間を過ぎたカレンダーを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *RetentionJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.CutoffYear()

	result, err := j.db.ExecContext(ctx, `DELETE FROM calendars WHERE year < $1`, cutoff)
	if err != nil {
		j.logger.Error("calendar retention cleanup failed",
			slog.String("error", err.Error()),
			slog.Int("cutoff_year", cutoff),
		)
		return fmt.Errorf("古いカレンダーの削除に失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	j.logger.Info("calendar retention cleanup completed",
		slog.Int64("deleted_count", deleted),
		slog.Int("cutoff_year", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}
