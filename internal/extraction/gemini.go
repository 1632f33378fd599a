package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel はGeminiプロバイダのデフォルトモデル。
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiReader はGemini APIでPDFを読み取るDocumentReader。
type GeminiReader struct {
	client *genai.Client
	model  string
}

// NewGeminiReader はGeminiReaderを生成する。timeoutはHTTPクライアントのタイムアウト。
func NewGeminiReader(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiReader, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiReader{client: client, model: model}, nil
}

// ReadDocument はPDFをインラインパートとして送信し、応答テキストを返す。
func (g *GeminiReader) ReadDocument(ctx context.Context, pdf []byte, instruction string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(pdf, "application/pdf"),
		genai.NewPartFromText(instruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

var _ DocumentReader = (*GeminiReader)(nil)
