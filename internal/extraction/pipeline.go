package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hitoshi/notibac/internal/metrics"
	"github.com/hitoshi/notibac/internal/sector"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrent はPDFを並行して抽出する既定の上限数。
const DefaultMaxConcurrent = 2

// CollectionExtractor はPDFから収集日を抽出する。*Extractorが実装する。
type CollectionExtractor interface {
	Extract(ctx context.Context, pdf []byte, year int) (Collections, error)
}

// Record はインポート用JSONファイル1件の内容を表す。
type Record struct {
	Sector      string      `json:"sector"`
	SectorName  string      `json:"sector_name"`
	Year        int         `json:"year"`
	HasCompost  bool        `json:"has_compost"`
	Collections Collections `json:"collections"`
}

// ParseSummary はディレクトリ単位の抽出結果を表す。
type ParseSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Outputs   []string
}

// Pipeline は年度ディレクトリ内のPDFを抽出し、インポート用JSONを書き出す。
type Pipeline struct {
	extractor     CollectionExtractor
	logger        *slog.Logger
	metrics       metrics.MetricsCollector
	maxConcurrent int
}

// NewPipeline はPipelineを生成する。maxConcurrentが0以下の場合はDefaultMaxConcurrentを使う。
func NewPipeline(extractor CollectionExtractor, logger *slog.Logger, mc metrics.MetricsCollector, maxConcurrent int) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Pipeline{
		extractor:     extractor,
		logger:        logger,
		metrics:       mc,
		maxConcurrent: maxConcurrent,
	}
}

// ParseDirectory は <dir>/<year>/*.pdf を抽出し、<dir>/<year>/json/ にJSONを書き出す。
// ファイル単位の失敗はログに記録して件数に含め、処理全体は継続する。
// ディレクトリが存在しない場合やPDFが1件もない場合はエラーを返す。
func (p *Pipeline) ParseDirectory(ctx context.Context, year int, dir string) (*ParseSummary, error) {
	inputDir := filepath.Join(dir, fmt.Sprint(year))
	outputDir := filepath.Join(inputDir, "json")

	// 1. 入力PDFの列挙
	pdfs, err := listPDFs(inputDir)
	if err != nil {
		return nil, err
	}
	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", inputDir)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	p.logger.Info("parsing calendar PDFs",
		slog.Int("year", year),
		slog.Int("files", len(pdfs)),
		slog.Int("max_concurrent", p.maxConcurrent),
	)

	// 2. 出力ファイル名の重複検出（ファイル名順で先のものを採用）
	var failed atomic.Int64
	claimed := make(map[string]string, len(pdfs))
	skip := make([]bool, len(pdfs))
	for i, pdfPath := range pdfs {
		filename := filepath.Base(pdfPath)
		out := sector.OutputFilename(filename)
		if first, ok := claimed[out]; ok {
			skip[i] = true
			failed.Add(1)
			p.metrics.RecordExtraction(false)
			p.logger.Error("calendar PDF skipped: output file already claimed",
				slog.String("file", filename),
				slog.String("output", out),
				slog.String("claimed_by", first),
			)
			continue
		}
		claimed[out] = filename
	}

	// 3. 並行抽出（失敗は集計のみ）
	outputs := make([]string, len(pdfs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for i, pdfPath := range pdfs {
		if skip[i] {
			continue
		}
		g.Go(func() error {
			out, err := p.processFile(gctx, pdfPath, outputDir, year)
			if err != nil {
				failed.Add(1)
				p.metrics.RecordExtraction(false)
				p.logger.Error("calendar PDF extraction failed",
					slog.String("file", filepath.Base(pdfPath)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			p.metrics.RecordExtraction(true)
			outputs[i] = out
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. 集計
	summary := &ParseSummary{Total: len(pdfs), Failed: int(failed.Load())}
	for _, out := range outputs {
		if out != "" {
			summary.Outputs = append(summary.Outputs, out)
		}
	}
	summary.Succeeded = len(summary.Outputs)

	p.logger.Info("calendar PDF parsing completed",
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (p *Pipeline) processFile(ctx context.Context, pdfPath, outputDir string, year int) (string, error) {
	filename := filepath.Base(pdfPath)
	info := sector.Resolve(filename)
	if info.Code == sector.UnknownCode {
		p.logger.Warn("unrecognized calendar filename", slog.String("file", filename))
	}

	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	collections, err := p.extractor.Extract(ctx, pdf, year)
	if err != nil {
		return "", err
	}

	rec := Record{
		Sector:      info.Code,
		SectorName:  info.Name,
		Year:        year,
		HasCompost:  info.HasCompost,
		Collections: collections,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	outPath := filepath.Join(outputDir, sector.OutputFilename(filename))
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write json: %w", err)
	}

	p.logger.Info("calendar PDF parsed",
		slog.String("file", filename),
		slog.String("output", filepath.Base(outPath)),
		slog.Int("dates", collections.Total()),
	)
	return outPath, nil
}

// listPDFs はディレクトリ直下の*.pdfをファイル名順に返す。
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("directory %s does not exist", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var pdfs []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		pdfs = append(pdfs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(pdfs)
	return pdfs, nil
}
