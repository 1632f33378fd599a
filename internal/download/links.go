// Package download は市のカレンダーページからPDFを取得する。
package download

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks はHTML内の <a href> のうち "Calendriers-<year>" を含むものを、
// baseで絶対URLに解決して出現順（重複なし）に返す。
func ExtractLinks(doc string, base *url.URL, year int) ([]string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	marker := fmt.Sprintf("Calendriers-%d", year)
	seen := make(map[string]bool)
	var links []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.Contains(attr.Val, marker) {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				abs := base.ResolveReference(ref).String()
				if !seen[abs] {
					seen[abs] = true
					links = append(links, abs)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return links, nil
}

// Filename はURLパスの末尾要素を保存用ファイル名として返す。
// パス区切りや親ディレクトリ参照を含む名前は空文字になる。
func Filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == ".." || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}
