package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hitoshi/notibac/internal/calendar"
	"github.com/hitoshi/notibac/internal/config"
	"github.com/hitoshi/notibac/internal/download"
	"github.com/hitoshi/notibac/internal/extraction"
	"github.com/hitoshi/notibac/internal/metrics"
	"github.com/hitoshi/notibac/internal/repository"
	"github.com/hitoshi/notibac/internal/security"
	"github.com/hitoshi/notibac/internal/user"
)

// renderSettle はカレンダーページのスクリプトがリンクを描画し終えるまでの待機時間。
const renderSettle = 2 * time.Second

// errMissingAPIKey は選択された抽出プロバイダーのAPIキーが未設定であることを表す。
var errMissingAPIKey = errors.New("extractor API key is not set")

// newDownloader はSSRF防止付きクライアントとヘッドレスブラウザを使うDownloaderを生成する。
func newDownloader(cfg *config.Config, logger *slog.Logger) *download.Downloader {
	guard := security.NewSSRFGuard()
	return download.NewDownloader(
		cfg.CalendarPageURL,
		&download.RodRenderer{BrowserBin: cfg.BrowserBin, Settle: renderSettle},
		guard.NewSafeClient(cfg.DownloadTimeout, cfg.DownloadMaxSize),
		guard,
		logger,
	)
}

// newDocumentReader は設定されたプロバイダーのDocumentReaderを生成する。
func newDocumentReader(ctx context.Context, cfg *config.Config) (extraction.DocumentReader, error) {
	apiKey := cfg.ExtractorAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%w for provider %q", errMissingAPIKey, cfg.ExtractorProvider)
	}

	switch cfg.ExtractorProvider {
	case config.ProviderOpenAI:
		return extraction.NewOpenAIReader(apiKey, cfg.ExtractorModel, cfg.ExtractorTimeout)
	default:
		return extraction.NewGeminiReader(ctx, apiKey, cfg.ExtractorModel, cfg.ExtractorTimeout)
	}
}

// newPipeline はPDF抽出パイプラインを生成する。
func newPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, mc metrics.MetricsCollector) (*extraction.Pipeline, error) {
	reader, err := newDocumentReader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create document reader: %w", err)
	}
	return extraction.NewPipeline(extraction.NewExtractor(reader, logger), logger, mc, cfg.ExtractorMaxConcurrent), nil
}

// runDownload はyearのカレンダーPDFを <CalendarDir>/<year>/ に保存する。
func runDownload(env *runEnv, year int) error {
	summary, err := newDownloader(env.cfg, env.logger).Download(env.ctx, year, env.cfg.CalendarDir)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(env.out, "found %d PDF links, downloaded %d, failed %d\n",
		summary.Found, len(summary.Downloaded), summary.Failed)
	return nil
}

// runParse は <CalendarDir>/<year>/ のPDFからインポート用JSONを生成する。
func runParse(env *runEnv, year int) error {
	pipeline, err := newPipeline(env.ctx, env.cfg, env.logger, metrics.Nop{})
	if err != nil {
		return err
	}

	summary, err := pipeline.ParseDirectory(env.ctx, year, env.cfg.CalendarDir)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	fmt.Fprintf(env.out, "parsed %d of %d PDFs, failed %d\n",
		summary.Succeeded, summary.Total, summary.Failed)
	return nil
}

// runImport は <CalendarDir>/<year>/json/ のJSONをデータベースに取り込む。
func runImport(env *runEnv, year int, clearExisting bool) error {
	db, err := openDatabase(env.ctx, env.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	importer := calendar.NewImporter(repository.NewPostgresCalendarRepo(db), env.logger, metrics.Nop{})
	jsonDir := filepath.Join(env.cfg.CalendarDir, fmt.Sprint(year), "json")
	stats, err := importer.ImportDirectory(env.ctx, year, jsonDir, clearExisting)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(env.out, "sectors created %d updated %d, calendars created %d updated %d, dates created %d\n",
		stats.SectorsCreated, stats.SectorsUpdated,
		stats.CalendarsCreated, stats.CalendarsUpdated,
		stats.DatesCreated)
	return nil
}

// runCreateUser はユーザーを登録し、APIのX-User-IDに使うIDを出力する。
func runCreateUser(env *runEnv, email, firstName, lastName string) error {
	db, err := openDatabase(env.ctx, env.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := user.NewService(repository.NewPostgresUserRepo(db), env.logger)
	u, err := svc.Register(env.ctx, user.RegisterInput{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintln(env.out, u.ID)
	return nil
}
