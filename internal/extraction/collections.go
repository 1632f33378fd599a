// Package extraction はカレンダーPDFから収集日を抽出する。
//
// PDFの解析自体は外部の文書理解サービス（DocumentReader）に委譲し、
// このパッケージは指示文の組み立てと応答の正規化を担う。
package extraction

import (
	"github.com/hitoshi/notibac/internal/model"
)

// Collections は収集種別ごとの日付文字列（YYYY-MM-DD）を表す。
// 正規化後は6種別すべてが空でないスライス（要素なしなら[]）を持つ。
// JSONのキー順はフィールド順で固定される。
type Collections struct {
	Garbage        []string `json:"garbage"`
	Recycling      []string `json:"recycling"`
	Compost        []string `json:"compost"`
	YardWaste      []string `json:"yard_waste"`
	ChristmasTrees []string `json:"christmas_trees"`
	BulkyWaste     []string `json:"bulky_waste"`
}

// field は収集種別に対応するフィールドへのポインタを返す。
func (c *Collections) field(ct model.CollectionType) *[]string {
	switch ct {
	case model.CollectionGarbage:
		return &c.Garbage
	case model.CollectionRecycling:
		return &c.Recycling
	case model.CollectionCompost:
		return &c.Compost
	case model.CollectionYardWaste:
		return &c.YardWaste
	case model.CollectionChristmasTrees:
		return &c.ChristmasTrees
	case model.CollectionBulkyWaste:
		return &c.BulkyWaste
	}
	return nil
}

// Get は指定種別の日付文字列を返す。
func (c *Collections) Get(ct model.CollectionType) []string {
	if f := c.field(ct); f != nil {
		return *f
	}
	return nil
}

// Total は全種別の日付数の合計を返す。
func (c *Collections) Total() int {
	n := 0
	for _, ct := range model.CollectionTypes() {
		n += len(c.Get(ct))
	}
	return n
}

// fill は欠落している種別を空リストで補う。
func (c *Collections) fill() {
	for _, ct := range model.CollectionTypes() {
		if f := c.field(ct); *f == nil {
			*f = []string{}
		}
	}
}
