package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hitoshi/notibac/internal/calendar"
	"github.com/hitoshi/notibac/internal/config"
	"github.com/hitoshi/notibac/internal/database"
	"github.com/hitoshi/notibac/internal/handler"
	"github.com/hitoshi/notibac/internal/logger"
	"github.com/hitoshi/notibac/internal/metrics"
	"github.com/hitoshi/notibac/internal/middleware"
	"github.com/hitoshi/notibac/internal/phone"
	"github.com/hitoshi/notibac/internal/preference"
	"github.com/hitoshi/notibac/internal/reminder"
	"github.com/hitoshi/notibac/internal/repository"
	"github.com/hitoshi/notibac/internal/sms"
	"github.com/hitoshi/notibac/internal/worker/calsync"
	"github.com/hitoshi/notibac/internal/worker/cleanup"
)

// shutdownTimeout はシグナル受信後にHTTPサーバーの処理中リクエストを待つ時間。
const shutdownTimeout = 30 * time.Second

// runEnv はサブコマンドの実行に必要な初期化済みの値をまとめる。
type runEnv struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。引数がない場合はAPIサーバーとして起動する。
// SIGINTまたはSIGTERMを受信するとコンテキストがキャンセルされる。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// withConfig は設定を読み込んでからサブコマンド本体を実行する。
func withConfig(cmd *cobra.Command, w io.Writer, name Command, fn func(env *runEnv) error) error {
	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(name)),
		slog.String("port", cfg.ServerPort),
		slog.String("timezone", cfg.Timezone),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(&runEnv{ctx: ctx, cfg: cfg, logger: slog.Default(), out: cmd.OutOrStdout()})
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established")
	return db, nil
}

// newMetricsRegistry はアプリケーション指標とランタイム指標を登録したレジストリを返す。
func newMetricsRegistry() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// コンテキストがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(env *runEnv) error {
	cfg := env.cfg

	// 1. DB接続
	db, err := openDatabase(env.ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. メトリクス
	reg, mc := newMetricsRegistry()

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	calendarRepo := repository.NewPostgresCalendarRepo(db)
	phoneRepo := repository.NewPostgresPhoneRepo(db)
	prefRepo := repository.NewPostgresPreferenceRepo(db)

	// 4. ドメインサービスの初期化
	sender := sms.NewSender(sms.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioPhoneNumber,
	}, env.logger)

	calendarService := calendar.NewService(calendarRepo)
	phoneService := phone.NewService(phoneRepo, sender, env.logger, mc)
	prefService := preference.NewService(prefRepo, phoneRepo, calendarRepo, env.logger)
	reminderService := reminder.NewService(prefRepo, calendarRepo, cfg.Location())

	// 5. ルーターの構築
	// configのレートはreq/min単位
	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitVerification),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            env.logger,
		Metrics:           mc,
		MetricsHandler:    metrics.Handler(reg),
		HealthChecker:     db,
		UserFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		CalendarService:   calendarService,
		PhoneService:      phoneService,
		PreferenceService: prefService,
		ReminderService:   reminderService,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilDone(env.ctx, server)
}

// serveUntilDone はサーバーを起動し、コンテキストのキャンセルでシャットダウンする。
func serveUntilDone(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// カレンダー同期と保持期間クリーンアップをcronスケジュールで実行し、
// 同じポートで /metrics と /health を公開する。
func runWorker(env *runEnv) error {
	cfg := env.cfg

	// 1. DB接続
	db, err := openDatabase(env.ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg, mc := newMetricsRegistry()

	// 2. 同期ジョブの初期化
	pipeline, err := newPipeline(env.ctx, cfg, env.logger, mc)
	if err != nil {
		return err
	}
	importer := calendar.NewImporter(repository.NewPostgresCalendarRepo(db), env.logger, mc)
	syncJob := calsync.NewJob(newDownloader(cfg, env.logger), pipeline, importer, cfg.CalendarDir, env.logger, mc)
	syncJob.Year = cfg.SyncYear

	// 3. クリーンアップジョブの初期化
	retentionJob := cleanup.NewRetentionJob(db, env.logger)
	retentionJob.RetentionYears = cfg.CalendarRetentionYears

	// 4. スケジュール登録
	scheduler := calsync.NewScheduler(cfg.Location(), cfg.CalendarSyncTimeout, env.logger)
	if err := scheduler.Add("calendar_sync", cfg.CalendarSyncSchedule, syncJob.Run); err != nil {
		return err
	}
	if err := scheduler.Add("calendar_retention", cfg.CleanupSchedule, retentionJob.Run); err != nil {
		return err
	}

	// 5. メトリクスエンドポイント
	mux := metrics.SetupMetricsRoute(reg)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	slog.Info("worker starting",
		slog.String("sync_schedule", cfg.CalendarSyncSchedule),
		slog.String("cleanup_schedule", cfg.CleanupSchedule),
		slog.String("extractor", cfg.ExtractorProvider),
	)

	// スケジューラはバックグラウンド、HTTPはメインで実行する
	done := make(chan struct{})
	go func() {
		defer close(done)
		scheduler.Start(env.ctx)
	}()

	err = serveUntilDone(env.ctx, server)
	<-done

	slog.Info("worker stopped gracefully")
	return err
}

// runMigrate はデータベースマイグレーションを実行する。
// downが正の場合はその段数だけロールバックし、showVersionの場合は現在のバージョンを表示する。
func runMigrate(env *runEnv, down int, showVersion bool) error {
	url := env.cfg.DatabaseURL

	if showVersion {
		version, dirty, err := database.MigrationVersion(url)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		fmt.Fprintf(env.out, "version=%d dirty=%t\n", version, dirty)
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(url)),
		slog.Int("down", down),
	)

	if down > 0 {
		if err := database.RollbackMigrations(url, down); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
		slog.Info("database migrations rolled back", slog.Int("steps", down))
		return nil
	}

	if err := database.RunMigrations(url); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// getEnvPort はhealthcheck用にSERVER_PORTを読む。設定全体は読み込まない。
func getEnvPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	return "8080"
}

func healthcheckURL(port string) string {
	return fmt.Sprintf("http://localhost:%s/health", port)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(ctx context.Context, url string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
