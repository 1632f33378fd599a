package calendar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/notibac/internal/metrics"
	"github.com/hitoshi/notibac/internal/model"
	"github.com/hitoshi/notibac/internal/repository"
)

// Importer は検証済みレコードをリポジトリへ一括反映する。
type Importer struct {
	repo    repository.CalendarRepository
	logger  *slog.Logger
	metrics metrics.MetricsCollector
}

// NewImporter はImporterを生成する。
func NewImporter(repo repository.CalendarRepository, logger *slog.Logger, mc metrics.MetricsCollector) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Importer{repo: repo, logger: logger, metrics: mc}
}

// Import は全レコードを検証してから単一トランザクションで反映する。
// 1件でも検証に失敗した場合はリポジトリを呼ばずにDataIntegrityErrorを返す。
func (i *Importer) Import(ctx context.Context, year int, files []RawRecord, clearExisting bool) (*model.ImportStats, error) {
	// 1. 全件検証
	records := make([]model.CalendarImport, 0, len(files))
	for _, raw := range files {
		rec, err := ParseRecord(raw)
		if err != nil {
			return nil, err
		}
		if rec.Year != year {
			i.logger.Warn("record year differs from import year",
				slog.String("file", raw.File),
				slog.Int("record_year", rec.Year),
				slog.Int("import_year", year),
			)
		}
		records = append(records, rec)
	}

	// 2. 一括反映
	stats, err := i.repo.ImportBatch(ctx, year, records, clearExisting)
	if err != nil {
		return nil, fmt.Errorf("calendar import failed: %w", err)
	}

	i.metrics.RecordImport(stats.CalendarsCreated+stats.CalendarsUpdated, stats.DatesCreated)
	i.logger.Info("calendar import completed",
		slog.Int("year", year),
		slog.Int("files", len(records)),
		slog.Bool("cleared", clearExisting),
		slog.Int("sectors_created", stats.SectorsCreated),
		slog.Int("sectors_updated", stats.SectorsUpdated),
		slog.Int("calendars_created", stats.CalendarsCreated),
		slog.Int("calendars_updated", stats.CalendarsUpdated),
		slog.Int("dates_created", stats.DatesCreated),
	)
	return stats, nil
}

// ImportDirectory は <dir> のJSONを読み込んでインポートする。
func (i *Importer) ImportDirectory(ctx context.Context, year int, dir string, clearExisting bool) (*model.ImportStats, error) {
	files, err := LoadDirectory(dir)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, year, files, clearExisting)
}
