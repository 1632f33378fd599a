package download

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// PageRenderer はJavaScript実行後のページHTMLを返す。
type PageRenderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// RodRenderer はヘッドレスChromiumでページを描画する。
type RodRenderer struct {
	// BrowserBin はChromiumの実行ファイルパス。空の場合はrodが自動で取得する。
	BrowserBin string
	// Settle はDOMが安定したとみなすまでの待機時間。
	Settle time.Duration
}

var _ PageRenderer = (*RodRenderer)(nil)

// Render はページを開き、読み込み完了とDOMの安定を待ってからHTMLを返す。
func (r *RodRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	l := launcher.New().Headless(true)
	if r.BrowserBin != "" {
		l = l.Bin(r.BrowserBin)
	}
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", pageURL, err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("page did not finish loading: %w", err)
	}
	settle := r.Settle
	if settle <= 0 {
		settle = time.Second
	}
	if err := page.WaitStable(settle); err != nil {
		return "", fmt.Errorf("page did not settle: %w", err)
	}

	doc, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return doc, nil
}
