package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrDocumentReader は文書理解サービスの呼び出し失敗を表す。
var ErrDocumentReader = errors.New("extraction: document reader failed")

// DocumentReader はPDFと指示文を受け取り、応答テキストを返す文書理解サービス。
type DocumentReader interface {
	ReadDocument(ctx context.Context, pdf []byte, instruction string) (string, error)
}

// instructionTemplate はカレンダーの凡例（6種のアイコン）と出力スキーマを説明する指示文。
const instructionTemplate = `Analyze this waste collection calendar PDF and extract ALL collection dates for the year %d.

The calendar uses these icons to mark collection days:
- Green trash bin icon (bac vert) = DÉCHETS (garbage)
- Blue recycling icon (bac bleu) = RÉCUPÉRATION (recycling)
- Brown compost bin icon (bac brun) = COMPOST
- Leaf/plant icon = RÉSIDUS VERTS (yard waste) - typically spring/fall only
- Christmas tree icon = ARBRES DE NOËL (Christmas trees) - January only
- Orange dumpster icon = ENCOMBRANTS (bulky_waste) - marked as "SEMAINE DES ENCOMBRANTS"

Look at EVERY month carefully and identify ALL dates that have each icon type.

Return ONLY a valid JSON object with this exact structure (no markdown, no explanation):
{
  "garbage": ["YYYY-MM-DD", ...],
  "recycling": ["YYYY-MM-DD", ...],
  "compost": ["YYYY-MM-DD", ...],
  "yard_waste": ["YYYY-MM-DD", ...],
  "christmas_trees": ["YYYY-MM-DD", ...],
  "bulky_waste": ["YYYY-MM-DD", ...]
}

Important:
- Use ISO 8601 date format (YYYY-MM-DD)
- Include ALL dates for the entire year
- If a collection type has no dates, use an empty array []
- Return ONLY the JSON, no other text`

// Instruction は対象年の指示文を返す。
func Instruction(year int) string {
	return fmt.Sprintf(instructionTemplate, year)
}

// Extractor はDocumentReaderの応答を正規化して収集日を取り出す。
type Extractor struct {
	reader DocumentReader
	logger *slog.Logger
}

// NewExtractor はExtractorを生成する。
func NewExtractor(reader DocumentReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{reader: reader, logger: logger}
}

// Extract はPDFから対象年の収集日を抽出する。
// 文書理解サービスの失敗はErrDocumentReader、応答の解析失敗はErrUnparseableResponseとして返す。
// 自動リトライは行わない。
func (e *Extractor) Extract(ctx context.Context, pdf []byte, year int) (Collections, error) {
	text, err := e.reader.ReadDocument(ctx, pdf, Instruction(year))
	if err != nil {
		return Collections{}, fmt.Errorf("%w: %w", ErrDocumentReader, err)
	}

	c, err := Normalize(strings.TrimSpace(text))
	if err != nil {
		e.logger.Warn("unparseable extraction response",
			slog.Int("year", year),
			slog.Int("response_length", len(text)),
		)
		return Collections{}, err
	}

	return c, nil
}
