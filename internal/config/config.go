// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// 抽出プロバイダー
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultCalendarPageURL は収集カレンダーPDFが掲載されている市のページ。
const DefaultCalendarPageURL = "https://www.rouyn-noranda.ca/citoyens/environnement/calendriers-des-collectes"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort        string
	CORSAllowedOrigin string

	// Timezone は通知時刻とスケジュールを解釈するIANAタイムゾーン名。
	Timezone string

	// Calendar files
	CalendarDir     string
	CalendarPageURL string

	// Sync worker
	CalendarSyncSchedule   string
	CalendarSyncYear       int // 0の場合は実行時点の年
	CalendarSyncTimeout    time.Duration
	CalendarRetentionYears int
	CleanupSchedule        string

	// Extraction
	ExtractorProvider      string
	ExtractorModel         string // 空の場合はプロバイダーの既定モデル
	GeminiAPIKey           string
	OpenAIAPIKey           string
	ExtractorMaxConcurrent int
	ExtractorTimeout       time.Duration

	// SMS
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	// Download
	DownloadTimeout time.Duration
	DownloadMaxSize int64
	BrowserBin      string // 空の場合はrodが取得したブラウザを使う

	// Rate Limit（req/min/user）
	RateLimitGeneral      int
	RateLimitVerification int
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: %v", []string{"DATABASE_URL"})
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.Timezone = getEnvString("TIMEZONE", "America/Toronto")
	cfg.CalendarDir = getEnvString("CALENDAR_DIR", "calendars")
	cfg.CalendarPageURL = getEnvString("CALENDAR_PAGE_URL", DefaultCalendarPageURL)
	cfg.CalendarSyncSchedule = getEnvString("CALENDAR_SYNC_SCHEDULE", "0 4 * * 1")
	cfg.CalendarSyncYear = getEnvInt("CALENDAR_SYNC_YEAR", 0)
	cfg.CalendarSyncTimeout = getEnvDuration("CALENDAR_SYNC_TIMEOUT", time.Hour)
	cfg.CalendarRetentionYears = getEnvInt("CALENDAR_RETENTION_YEARS", 1)
	cfg.CleanupSchedule = getEnvString("CLEANUP_SCHEDULE", "30 3 * * *")
	cfg.ExtractorProvider = getEnvString("EXTRACTOR_PROVIDER", ProviderGemini)
	cfg.ExtractorModel = getEnvString("EXTRACTOR_MODEL", "")
	cfg.GeminiAPIKey = getEnvString("GEMINI_API_KEY", "")
	cfg.OpenAIAPIKey = getEnvString("OPENAI_API_KEY", "")
	cfg.ExtractorMaxConcurrent = getEnvInt("EXTRACTOR_MAX_CONCURRENT", 2)
	cfg.ExtractorTimeout = getEnvDuration("EXTRACTOR_TIMEOUT", 2*time.Minute)
	cfg.TwilioAccountSID = getEnvString("TWILIO_ACCOUNT_SID", "")
	cfg.TwilioAuthToken = getEnvString("TWILIO_AUTH_TOKEN", "")
	cfg.TwilioPhoneNumber = getEnvString("TWILIO_PHONE_NUMBER", "")
	cfg.DownloadTimeout = getEnvDuration("DOWNLOAD_TIMEOUT", 30*time.Second)
	cfg.DownloadMaxSize = getEnvInt64("DOWNLOAD_MAX_SIZE", 20<<20)
	cfg.BrowserBin = getEnvString("BROWSER_BIN", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitVerification = getEnvInt("RATE_LIMIT_VERIFICATION", 5)

	if !slices.Contains([]string{ProviderGemini, ProviderOpenAI}, cfg.ExtractorProvider) {
		return nil, fmt.Errorf("EXTRACTOR_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, cfg.ExtractorProvider)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location は設定されたタイムゾーンを返す。Loadで検証済みのため失敗時はUTCを返す。
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SyncYear は同期対象の年を返す。CALENDAR_SYNC_YEAR未設定の場合はnowの年。
func (c *Config) SyncYear(now time.Time) int {
	if c.CalendarSyncYear > 0 {
		return c.CalendarSyncYear
	}
	return now.In(c.Location()).Year()
}

// ExtractorAPIKey は選択されたプロバイダーのAPIキーを返す。
func (c *Config) ExtractorAPIKey() string {
	if c.ExtractorProvider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
