// Package sector はカレンダーPDFのファイル名からセクター情報を復元する。
//
// ファイル名の規約は "<sector-id>[-<location>]-[sans-]Cal-gmr-<year>.pdf"（大文字小文字は区別しない）。
// 規約に合わないファイル名でも失敗させず、コード "unknown" のレコードとして扱う。
package sector

import (
	"regexp"
	"strings"
)

// UnknownCode は規約に一致しないファイル名に割り当てるセクターコード。
const UnknownCode = "unknown"

var (
	// セクターID（例: 01, 21-22, 14a, 14ab）、任意の地名、任意の sans マーカー、cal トークン
	filenamePattern = regexp.MustCompile(`^(\d+(?:-\d+)*[ab]*)(?:-([a-z][a-z-]*?))?-(?:sans-)?cal`)
	suffixPattern   = regexp.MustCompile(`[ab]+$`)

	// ファイル名規約上のトークンであり地名ではないもの。
	// "01-sans-Cal" のように地名がない場合、sans が地名の位置に一致する。
	protocolTokens = map[string]bool{"cal": true, "gmr": true, "sans": true}
)

// Info はファイル名から復元したセクター情報を表す。
type Info struct {
	Code       string `json:"sector"`
	Name       string `json:"sector_name"`
	HasCompost bool   `json:"has_compost"`
}

// Resolve はファイル名からセクター情報を復元する。
// 結果はファイル名のみから決まり、失敗することはない。
func Resolve(filename string) Info {
	name := strings.ToLower(filename)
	hasCompost := !strings.Contains(name, "-sans-") && !strings.HasPrefix(name, "sans")

	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return Info{Code: UnknownCode, Name: filename, HasCompost: hasCompost}
	}

	code, location := m[1], m[2]
	return Info{
		Code:       code,
		Name:       displayName(code, location),
		HasCompost: hasCompost,
	}
}

// displayName は "Secteur(s) <番号>[<接尾辞>] [- <地名>]" 形式の表示名を組み立てる。
func displayName(code, location string) string {
	num := suffixPattern.ReplaceAllString(code, "")
	suffix := strings.ToUpper(suffixPattern.FindString(code))

	var b strings.Builder
	if strings.Contains(num, "-") {
		b.WriteString("Secteurs ")
	} else {
		b.WriteString("Secteur ")
	}
	b.WriteString(num)
	b.WriteString(suffix)

	if location != "" && !protocolTokens[location] {
		b.WriteString(" - ")
		b.WriteString(titleCase(strings.ReplaceAll(location, "-", " ")))
	}
	return b.String()
}

func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// OutputFilename はPDFファイル名に対応する抽出結果JSONのファイル名を返す。
// 例: "01-sans-Cal-gmr-2026.pdf" → "sector-01-sans-compost.json"
// ゼロ埋めはファイル名にのみ適用し、保存されるコードはリテラルのまま扱う。
func OutputFilename(pdfFilename string) string {
	info := Resolve(pdfFilename)

	variant := "avec-compost"
	if !info.HasCompost {
		variant = "sans-compost"
	}
	return "sector-" + zeroPad(info.Code, 2) + "-" + variant + ".json"
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
