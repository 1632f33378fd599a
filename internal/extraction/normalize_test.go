package extraction

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	empty := []string{}

	tests := []struct {
		name string
		text string
		want Collections
	}{
		{
			name: "direct JSON",
			text: `{"garbage":["2026-01-06"],"recycling":["2026-01-13"],"compost":[],"yard_waste":[],"christmas_trees":["2026-01-08"],"bulky_waste":[]}`,
			want: Collections{
				Garbage:        []string{"2026-01-06"},
				Recycling:      []string{"2026-01-13"},
				Compost:        empty,
				YardWaste:      empty,
				ChristmasTrees: []string{"2026-01-08"},
				BulkyWaste:     empty,
			},
		},
		{
			name: "fenced json block",
			text: "Voici le résultat:\n```json\n{\"garbage\":[\"2026-02-03\"]}\n```\n",
			want: Collections{
				Garbage:        []string{"2026-02-03"},
				Recycling:      empty,
				Compost:        empty,
				YardWaste:      empty,
				ChristmasTrees: empty,
				BulkyWaste:     empty,
			},
		},
		{
			name: "fenced block without language",
			text: "```\n{\"compost\":[\"2026-05-04\",\"2026-05-11\"]}\n```",
			want: Collections{
				Garbage:        empty,
				Recycling:      empty,
				Compost:        []string{"2026-05-04", "2026-05-11"},
				YardWaste:      empty,
				ChristmasTrees: empty,
				BulkyWaste:     empty,
			},
		},
		{
			name: "missing keys become empty lists and unknown keys are ignored",
			text: `{"recycling":["2026-03-10"],"notes":"ignored"}`,
			want: Collections{
				Garbage:        empty,
				Recycling:      []string{"2026-03-10"},
				Compost:        empty,
				YardWaste:      empty,
				ChristmasTrees: empty,
				BulkyWaste:     empty,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.text)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "plain prose", text: "I could not read this calendar."},
		{name: "broken fenced block", text: "```json\n{\"garbage\": [\n```"},
		{name: "JSON array", text: `["2026-01-01"]`},
		{name: "JSON null", text: `null`},
		{name: "wrong value type", text: `{"garbage":"2026-01-01"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.text)
			if err == nil {
				t.Fatal("Normalize() expected error, got nil")
			}
			if !errors.Is(err, ErrUnparseableResponse) {
				t.Errorf("errors.Is(err, ErrUnparseableResponse) = false, err = %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("errors.As(*ParseError) = false, err = %v", err)
			}
			if pe.Snippet == "" {
				t.Error("ParseError.Snippet is empty")
			}
		})
	}
}

func TestCollectionsTotal(t *testing.T) {
	c := Collections{
		Garbage:    []string{"2026-01-06", "2026-01-20"},
		BulkyWaste: []string{"2026-05-18"},
	}
	if got := c.Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}
}
