package scanner

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAnchorFor(t *testing.T) {
	pos := AnchorFor(Rect{X0: 100, Y0: 50, X1: 220, Y1: 65}, 842)

	if !almostEqual(pos.X, 230) || !almostEqual(pos.Y, 61.5) {
		t.Fatalf("anchor = (%v, %v), want (230, 61.5)", pos.X, pos.Y)
	}
	if pos.PageHeight != 842 {
		t.Errorf("PageHeight = %v, want 842", pos.PageHeight)
	}

	x, y := pos.RenderPoint()
	if !almostEqual(x, 230) || !almostEqual(y, 780.5) {
		t.Errorf("render point = (%v, %v), want (230, 780.5)", x, y)
	}
}

func span(text string, x0, y0, x1, y1 float64) Span {
	return Span{Font: "Helvetica", Size: 10, Text: text, BBox: Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}}
}

func TestLocate(t *testing.T) {
	pages := []PageLayout{
		{
			Height: 842,
			Lines: []Line{
				{Spans: []Span{span("Production Record", 72, 60, 200, 75)}},
			},
		},
		{
			Height: 842,
			Lines: []Line{
				{Spans: []Span{span("Batch Number:", 100, 50, 220, 65), span("____", 230, 50, 260, 65)}},
				{Spans: []Span{span("Batch Number:", 100, 300, 220, 315)}},
			},
		},
		{
			Height: 612,
			Lines: []Line{
				// label split across fonts: the line matches, no span does
				{Spans: []Span{span("Batch", 72, 40, 100, 52), span("Number:", 104, 40, 150, 52)}},
				{Spans: []Span{span("Lot / Batch Number: ", 72, 100, 180, 112)}},
			},
		},
		{Height: 842},
	}

	got := Locate(pages)
	if len(got) != 2 {
		t.Fatalf("Locate found %d pages, want 2: %+v", len(got), got)
	}
	if _, ok := got[0]; ok {
		t.Error("page 0 has no label but got a position")
	}
	if _, ok := got[3]; ok {
		t.Error("page 3 is empty but got a position")
	}

	first := got[1]
	if !almostEqual(first.X, 230) || !almostEqual(first.Y, 61.5) {
		t.Errorf("page 1 anchor = (%v, %v), want first occurrence (230, 61.5)", first.X, first.Y)
	}

	split := got[2]
	if !almostEqual(split.X, 190) || !almostEqual(split.Y, 110) || split.PageHeight != 612 {
		t.Errorf("page 2 anchor = %+v, want (190, 110) on height 612", split)
	}
}

func TestLocateNoLabel(t *testing.T) {
	got := Locate([]PageLayout{
		{Height: 842, Lines: []Line{{Spans: []Span{span("Batch No.", 0, 0, 10, 10)}}}},
	})
	if got == nil {
		t.Fatal("Locate returned nil map")
	}
	if len(got) != 0 {
		t.Errorf("Locate = %+v, want empty", got)
	}
}
