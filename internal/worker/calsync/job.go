// Package calsync はカレンダーの定期同期（ダウンロード → 抽出 → インポート）を提供する。
// 通知SMSの配信は行わない。
package calsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hitoshi/notibac/internal/download"
	"github.com/hitoshi/notibac/internal/extraction"
	"github.com/hitoshi/notibac/internal/metrics"
	"github.com/hitoshi/notibac/internal/model"
)

// Downloader はカレンダーPDFを年度ディレクトリに保存する。
type Downloader interface {
	Download(ctx context.Context, year int, dir string) (*download.Summary, error)
}

// Parser は年度ディレクトリのPDFからインポート用JSONを生成する。
type Parser interface {
	ParseDirectory(ctx context.Context, year int, dir string) (*extraction.ParseSummary, error)
}

// Importer はJSONディレクトリをインポートする。
type Importer interface {
	ImportDirectory(ctx context.Context, year int, dir string, clearExisting bool) (*model.ImportStats, error)
}

// Job は1回分のカレンダー同期処理。
type Job struct {
	downloader Downloader
	parser     Parser
	importer   Importer
	dir        string
	logger     *slog.Logger
	metrics    metrics.MetricsCollector

	// Year は実行時刻から同期対象の年を決める。nilの場合は実行時点の年を使う。
	Year func(now time.Time) int

	now func() time.Time
}

// NewJob はJobを生成する。
func NewJob(d Downloader, p Parser, i Importer, dir string, logger *slog.Logger, mc metrics.MetricsCollector) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Job{
		downloader: d,
		parser:     p,
		importer:   i,
		dir:        dir,
		logger:     logger,
		metrics:    mc,
		now:        time.Now,
	}
}

// Run はダウンロード、抽出、インポートを順に実行する。インポートは既存データを消去しない。
// いずれかの段階で失敗した場合はエラーを返し、次回のスケジュールで再試行される。
func (j *Job) Run(ctx context.Context) (err error) {
	start := j.now()
	year := start.Year()
	if j.Year != nil {
		year = j.Year(start)
	}
	defer func() {
		j.metrics.RecordSyncRun(err == nil, j.now().Sub(start))
	}()

	// 1. ダウンロード
	dl, err := j.downloader.Download(ctx, year, j.dir)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if len(dl.Downloaded) == 0 {
		return fmt.Errorf("download: no calendars available for %d", year)
	}

	// 2. 抽出
	parsed, err := j.parser.ParseDirectory(ctx, year, j.dir)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if parsed.Succeeded == 0 {
		return errors.New("parse: no calendar could be extracted")
	}

	// 3. インポート
	stats, err := j.importer.ImportDirectory(ctx, year, filepath.Join(j.dir, fmt.Sprint(year), "json"), false)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	j.logger.Info("calendar sync completed",
		slog.Int("year", year),
		slog.Int("downloaded", len(dl.Downloaded)),
		slog.Int("parsed", parsed.Succeeded),
		slog.Int("parse_failures", parsed.Failed),
		slog.Int("calendars_created", stats.CalendarsCreated),
		slog.Int("calendars_updated", stats.CalendarsUpdated),
		slog.Int("dates_created", stats.DatesCreated),
		slog.Duration("duration", j.now().Sub(start)),
	)
	return nil
}
