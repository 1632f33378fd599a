package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// URLValidator はダウンロード前にURLの安全性を検証する。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Summary はダウンロード結果を表す。
type Summary struct {
	Found      int
	Downloaded []string
	Failed     int
}

// Downloader はカレンダーページのPDFリンクを列挙し、年度ディレクトリに保存する。
type Downloader struct {
	pageURL   string
	renderer  PageRenderer
	client    *http.Client
	validator URLValidator
	logger    *slog.Logger
}

// NewDownloader はDownloaderを生成する。
// clientにはサイズ上限とSSRF防止を備えたクライアントを渡す。
func NewDownloader(pageURL string, renderer PageRenderer, client *http.Client, validator URLValidator, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		pageURL:   pageURL,
		renderer:  renderer,
		client:    client,
		validator: validator,
		logger:    logger,
	}
}

// Download は <dir>/<year>/ にその年のPDFを保存する。
// リンク単位の失敗はログに記録して飛ばし、ページ自体が取得できない場合のみエラーを返す。
func (d *Downloader) Download(ctx context.Context, year int, dir string) (*Summary, error) {
	base, err := url.Parse(d.pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar page URL: %w", err)
	}

	outputDir := filepath.Join(dir, fmt.Sprint(year))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// 1. ページの描画とリンク抽出
	d.logger.Info("rendering calendar page", slog.String("url", d.pageURL))
	doc, err := d.renderer.Render(ctx, d.pageURL)
	if err != nil {
		return nil, err
	}
	links, err := ExtractLinks(doc, base, year)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Found: len(links)}
	d.logger.Info("calendar links found", slog.Int("year", year), slog.Int("count", len(links)))
	if len(links) == 0 {
		return summary, nil
	}

	// 2. 各PDFのダウンロード
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		name, err := d.downloadOne(ctx, link, outputDir)
		if err != nil {
			summary.Failed++
			d.logger.Warn("calendar download failed",
				slog.String("url", link),
				slog.String("error", err.Error()),
			)
			continue
		}
		summary.Downloaded = append(summary.Downloaded, name)
	}

	d.logger.Info("calendar download completed",
		slog.Int("year", year),
		slog.Int("downloaded", len(summary.Downloaded)),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (d *Downloader) downloadOne(ctx context.Context, link, outputDir string) (string, error) {
	name := Filename(link)
	if name == "" {
		return "", errors.New("cannot derive a file name from URL")
	}
	if d.validator != nil {
		if err := d.validator.ValidateURL(link); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Notibac/1.0 calendar sync")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	// 一時ファイルに書いてから置き換え、途中失敗で壊れたPDFを残さない
	tmp, err := os.CreateTemp(outputDir, name+".*.part")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(outputDir, name)); err != nil {
		return "", err
	}

	d.logger.Info("calendar downloaded", slog.String("file", name))
	return name, nil
}
