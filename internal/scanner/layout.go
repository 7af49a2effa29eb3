package scanner

import (
	"math"
	"strings"
)

// Layout tuning, all relative to the font size of the glyphs involved.
const (
	// LineTolerance is the baseline drift still considered the same line.
	LineTolerance = 0.5
	// MinLineTolerance bounds LineTolerance from below, in points.
	MinLineTolerance = 2.0
	// LineGapFactor is the horizontal gap that splits a line in two.
	LineGapFactor = 3.0
	// WordSpaceFactor is the gap at which a space is synthesised.
	WordSpaceFactor = 0.25

	// Ascent and Descent give the span box above and below the baseline.
	Ascent  = 0.8
	Descent = 0.2
)

// Glyph is one shown character in PDF user space (bottom-left origin).
type Glyph struct {
	Font string
	Size float64
	X, Y float64 // baseline origin
	W    float64 // advance width
	S    string
}

func (g Glyph) right() float64 { return g.X + g.W }

// PageBox is the part of the MediaBox needed to flip coordinates.
type PageBox struct {
	LLY    float64 // lower edge in user space
	Height float64
}

// top converts a user-space y into top-left origin.
func (b PageBox) top(y float64) float64 {
	return b.Height - (y - b.LLY)
}

// Rect is a box in top-left origin: (X0, Y0) top-left, (X1, Y1) bottom-right.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Span is a run of glyphs sharing font and size within a line.
type Span struct {
	Font string
	Size float64
	Text string
	BBox Rect
}

// Line is a sequence of spans on a common baseline.
type Line struct {
	Spans []Span
}

// Text joins the line's spans with single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Spans))
	for i, s := range l.Spans {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// PageLayout is the text layout of one page in emission order.
type PageLayout struct {
	Height float64
	Lines  []Line
}

// BuildLayout groups glyphs, in content-stream order, into lines and spans.
func BuildLayout(glyphs []Glyph, box PageBox) PageLayout {
	layout := PageLayout{Height: box.Height}

	var lb *lineBuilder
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		g.Size = math.Abs(g.Size)
		if lb != nil && lb.continues(g) {
			lb.add(g)
			continue
		}
		if lb != nil {
			layout.Lines = append(layout.Lines, lb.line(box))
		}
		lb = newLineBuilder(g)
	}
	if lb != nil {
		layout.Lines = append(layout.Lines, lb.line(box))
	}
	return layout
}

type spanBuilder struct {
	font     string
	size     float64
	baseline float64
	x0, x1   float64
	text     strings.Builder
}

type lineBuilder struct {
	last  Glyph
	spans []*spanBuilder
}

func newLineBuilder(g Glyph) *lineBuilder {
	lb := &lineBuilder{}
	lb.startSpan(g)
	return lb
}

func (lb *lineBuilder) startSpan(g Glyph) {
	sb := &spanBuilder{
		font:     g.Font,
		size:     g.Size,
		baseline: g.Y,
		x0:       g.X,
		x1:       g.right(),
	}
	sb.text.WriteString(g.S)
	lb.spans = append(lb.spans, sb)
	lb.last = g
}

func (lb *lineBuilder) continues(g Glyph) bool {
	size := math.Max(lb.last.Size, g.Size)
	tol := math.Max(MinLineTolerance, LineTolerance*size)
	if math.Abs(g.Y-lb.last.Y) > tol {
		return false
	}
	gap := g.X - lb.last.right()
	return gap >= -tol && gap <= LineGapFactor*size
}

func (lb *lineBuilder) add(g Glyph) {
	cur := lb.spans[len(lb.spans)-1]
	if g.Font != cur.font || g.Size != cur.size {
		lb.startSpan(g)
		return
	}

	gap := g.X - lb.last.right()
	if gap > WordSpaceFactor*g.Size && g.S != " " && !strings.HasSuffix(cur.text.String(), " ") {
		cur.text.WriteByte(' ')
	}
	cur.text.WriteString(g.S)
	cur.x1 = math.Max(cur.x1, g.right())
	lb.last = g
}

func (lb *lineBuilder) line(box PageBox) Line {
	line := Line{Spans: make([]Span, 0, len(lb.spans))}
	for _, sb := range lb.spans {
		base := box.top(sb.baseline)
		line.Spans = append(line.Spans, Span{
			Font: sb.font,
			Size: sb.size,
			Text: sb.text.String(),
			BBox: Rect{
				X0: sb.x0,
				Y0: base - Ascent*sb.size,
				X1: sb.x1,
				Y1: base + Descent*sb.size,
			},
		})
	}
	return line
}
