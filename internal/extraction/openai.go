package extraction

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultOpenAIModel はOpenAIプロバイダのデフォルトモデル。
const DefaultOpenAIModel = string(shared.ChatModelGPT4o)

// OpenAIReader はOpenAI Chat Completions APIでPDFを読み取るDocumentReader。
type OpenAIReader struct {
	client openai.Client
	model  string
}

// NewOpenAIReader はOpenAIReaderを生成する。SDK側の自動リトライは無効にする。
func NewOpenAIReader(apiKey, model string, timeout time.Duration) (*OpenAIReader, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is not configured")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	)
	return &OpenAIReader{client: client, model: model}, nil
}

// ReadDocument はPDFをdata URLのファイルパートとして送信し、応答テキストを返す。
func (o *OpenAIReader) ReadDocument(ctx context.Context, pdf []byte, instruction string) (string, error) {
	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf)

	req := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
					FileData: openai.String(dataURL),
					Filename: openai.String("calendar.pdf"),
				}),
				openai.TextContentPart(instruction),
			}),
		},
		Temperature: openai.Float(0),
	}

	resp, err := o.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ DocumentReader = (*OpenAIReader)(nil)
