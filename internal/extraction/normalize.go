package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/hitoshi/notibac/internal/model"
)

// ErrUnparseableResponse は文書理解サービスの応答をJSONとして解釈できないことを表す。
var ErrUnparseableResponse = errors.New("extraction: response is not valid JSON")

// fencedBlock はMarkdownのコードブロック（```json ... ``` または ``` ... ```）に一致する。
var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ParseError は応答の正規化失敗を表す。Snippetには応答の先頭部分を保持する。
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse JSON from response: %q: %v", e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrUnparseableResponse, e.Err}
}

// Normalize は文書理解サービスの応答テキストをCollectionsに正規化する。
// 応答全体がJSONでなければ最初のコードブロックの中身を解析する。
// どちらも解析できない場合は*ParseErrorを返す。日付の書式はここでは検証しない。
func Normalize(text string) (Collections, error) {
	c, err := decodeCollections(text)
	if err == nil {
		return c, nil
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		c, fenceErr := decodeCollections(m[1])
		if fenceErr == nil {
			return c, nil
		}
		err = fenceErr
	}

	return Collections{}, &ParseError{Snippet: snippet(text, 200), Err: err}
}

func decodeCollections(text string) (Collections, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Collections{}, err
	}
	if raw == nil {
		return Collections{}, errors.New("response is not a JSON object")
	}

	var c Collections
	for _, ct := range model.CollectionTypes() {
		v, ok := raw[string(ct)]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, c.field(ct)); err != nil {
			return Collections{}, fmt.Errorf("%s: %w", ct, err)
		}
	}
	c.fill()
	return c, nil
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
