package scanner

import (
	"context"
	"errors"
	"math"
	"testing"

	"batchstamp/internal/pdfgen"
)

func buildPDF(t *testing.T, pages []pdfgen.Page) []byte {
	t.Helper()
	data, err := pdfgen.Build(pages, pdfgen.Options{})
	if err != nil {
		t.Fatalf("pdfgen.Build: %v", err)
	}
	return data
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestScanFindsLabelPerPage(t *testing.T) {
	data := buildPDF(t, pdfgen.SampleForm(3, []int{1, 3}))

	positions, err := Scan(context.Background(), data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got positions for %v, want pages 0 and 2", positions.Pages())
	}

	wantX := 72 + pdfgen.TextWidth(Label, 11) + AnchorGap
	base := pdfgen.A4Height - 680
	wantY := base - (Ascent-Descent)/2*11 + BaselineCorrection

	for _, idx := range []int{0, 2} {
		pos, ok := positions[idx]
		if !ok {
			t.Fatalf("no position for page %d", idx)
		}
		if !near(pos.X, wantX) || !near(pos.Y, wantY) {
			t.Errorf("page %d anchor = (%v, %v), want (%v, %v)", idx, pos.X, pos.Y, wantX, wantY)
		}
		if !near(pos.PageHeight, pdfgen.A4Height) {
			t.Errorf("page %d height = %v, want %v", idx, pos.PageHeight, pdfgen.A4Height)
		}
	}
	if _, ok := positions[1]; ok {
		t.Error("page 1 has no label but got a position")
	}
}

func TestScanFirstOccurrenceOnly(t *testing.T) {
	data := buildPDF(t, []pdfgen.Page{{
		Lines: []pdfgen.Line{
			{X: 50, Y: 700, Size: 10, Text: "Batch Number:"},
			{X: 50, Y: 400, Size: 10, Text: "Batch Number:"},
		},
	}})

	positions, err := Scan(context.Background(), data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pos, ok := positions[0]
	if !ok {
		t.Fatal("label not found")
	}
	wantY := pdfgen.A4Height - 700 - 3 + BaselineCorrection
	if !near(pos.Y, wantY) {
		t.Errorf("Y = %v, want first occurrence at %v", pos.Y, wantY)
	}
}

func TestScanLabelFollowedByValueFont(t *testing.T) {
	data := buildPDF(t, []pdfgen.Page{{
		Width: 612, Height: 792,
		Lines: []pdfgen.Line{
			{X: 100, Y: 500, Size: 12, Text: "Batch Number:"},
			{X: 100 + pdfgen.TextWidth("Batch Number:", 12), Y: 500, Size: 12, Text: " ______", Font: "F2"},
		},
	}})

	positions, err := Scan(context.Background(), data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pos, ok := positions[0]
	if !ok {
		t.Fatal("label not found")
	}
	if want := 100 + pdfgen.TextWidth(Label, 12) + AnchorGap; !near(pos.X, want) {
		t.Errorf("X = %v, want %v (right edge of the label span)", pos.X, want)
	}
	if !near(pos.PageHeight, 792) {
		t.Errorf("PageHeight = %v, want 792", pos.PageHeight)
	}
}

func TestScanNoLabel(t *testing.T) {
	data := buildPDF(t, pdfgen.SampleForm(2, nil))

	positions, err := Scan(context.Background(), data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("positions = %+v, want none", positions)
	}
}

func TestScanXRefStream(t *testing.T) {
	data, err := pdfgen.Build(pdfgen.SampleForm(2, []int{2}), pdfgen.Options{XRefStream: true})
	if err != nil {
		t.Fatal(err)
	}
	positions, err := Scan(context.Background(), data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, ok := positions[1]; !ok || len(positions) != 1 {
		t.Errorf("positions = %+v, want page 1 only", positions)
	}
}

func TestScanUnreadable(t *testing.T) {
	_, err := Scan(context.Background(), []byte("this is not a pdf"))
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("err = %v, want ErrUnreadable", err)
	}
}

func TestScanCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, buildPDF(t, pdfgen.SampleForm(1, []int{1})))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestScanMultiStreamPage(t *testing.T) {
	single := buildPDF(t, pdfgen.SampleForm(2, []int{2}))
	multi, err := pdfgen.Build(pdfgen.SampleForm(2, []int{2}), pdfgen.Options{ContentsArray: true})
	if err != nil {
		t.Fatalf("pdfgen.Build: %v", err)
	}

	want, err := Scan(context.Background(), single)
	if err != nil {
		t.Fatalf("Scan single: %v", err)
	}
	got, err := Scan(context.Background(), multi)
	if err != nil {
		t.Fatalf("Scan multi: %v", err)
	}
	if len(got) != 1 || len(want) != 1 {
		t.Fatalf("positions = %+v, want page 1 only", got)
	}
	if !near(got[1].X, want[1].X) || !near(got[1].Y, want[1].Y) {
		t.Errorf("anchor = (%v, %v), want (%v, %v)", got[1].X, got[1].Y, want[1].X, want[1].Y)
	}
}

func TestScanSkipsBrokenPage(t *testing.T) {
	pages := pdfgen.SampleForm(2, []int{2})
	// Restoring a graphics state that was never saved makes the content
	// interpreter panic.
	pages[0].Raw = "Q\n"
	data := buildPDF(t, pages)

	layouts, err := ReadLayouts(context.Background(), data)
	if err != nil {
		t.Fatalf("ReadLayouts: %v", err)
	}
	if len(layouts) != 2 {
		t.Fatalf("got %d layouts, want 2", len(layouts))
	}
	if len(layouts[0].Lines) != 0 || !near(layouts[0].Height, pdfgen.A4Height) {
		t.Errorf("broken page layout = %+v, want empty A4 layout", layouts[0])
	}

	positions := Locate(layouts)
	if _, ok := positions[1]; !ok || len(positions) != 1 {
		t.Errorf("positions = %+v, want page 1 only", positions)
	}
}
