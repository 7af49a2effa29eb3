// Package scanner finds the "Batch Number:" label in a PDF's text layout.
//
// Glyph positions come from github.com/ledongthuc/pdf. They are grouped into
// lines and spans (see BuildLayout) and searched top-to-bottom in the order
// the content streams emit them. Only the first match on each page counts.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ledongthuc/pdf"

	"batchstamp/internal/logger"
	"batchstamp/pkg/models"
)

// DefaultPageHeight is used when no MediaBox can be found (A4).
const DefaultPageHeight = 841.89

// ErrUnreadable is returned when the document cannot be decoded.
var ErrUnreadable = errors.New("unreadable PDF document")

// maxTreeDepth bounds the walk up the page tree for inherited attributes.
const maxTreeDepth = 32

// Scan reads data and returns the label anchors per page.
func Scan(ctx context.Context, data []byte) (models.Positions, error) {
	layouts, err := ReadLayouts(ctx, data)
	if err != nil {
		return nil, err
	}
	positions := Locate(layouts)

	log := logger.WithComponent("scanner")
	log.Debug().
		Int("pages", len(layouts)).
		Int("matches", len(positions)).
		Msg("Label scan finished")
	return positions, nil
}

// ReadLayouts decodes every page of data into its text layout. A page whose
// content cannot be interpreted yields an empty layout and is logged.
func ReadLayouts(ctx context.Context, data []byte) (layouts []PageLayout, err error) {
	data = flattenContents(data)

	// ledongthuc/pdf panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			layouts = nil
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	n := r.NumPage()
	layouts = make([]PageLayout, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			layouts[i-1] = PageLayout{Height: DefaultPageHeight}
			continue
		}
		layouts[i-1] = pageLayout(p, i)
	}
	return layouts, nil
}

// pageLayout recovers from interpreter panics so one bad page does not fail
// the whole document.
func pageLayout(p pdf.Page, pageNr int) (layout PageLayout) {
	box := pageBox(p.V)
	defer func() {
		if r := recover(); r != nil {
			log := logger.WithComponent("scanner")
			log.Warn().
				Int("page", pageNr).
				Str("panic", fmt.Sprint(r)).
				Msg("Page content unreadable, skipping page")
			layout = PageLayout{Height: box.Height}
		}
	}()
	return BuildLayout(glyphsOf(p), box)
}

func glyphsOf(p pdf.Page) []Glyph {
	texts := p.Content().Text
	glyphs := make([]Glyph, len(texts))
	for i, t := range texts {
		glyphs[i] = Glyph{
			Font: t.Font,
			Size: t.FontSize,
			X:    t.X,
			Y:    t.Y,
			W:    t.W,
			S:    t.S,
		}
	}
	return glyphs
}

// pageBox resolves the MediaBox, following the page tree for inherited values.
func pageBox(page pdf.Value) PageBox {
	v := page
	for depth := 0; depth < maxTreeDepth && !v.IsNull(); depth++ {
		mb := v.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			lly, ury := mb.Index(1).Float64(), mb.Index(3).Float64()
			if h := math.Abs(ury - lly); h > 0 {
				return PageBox{LLY: math.Min(lly, ury), Height: h}
			}
		}
		v = v.Key("Parent")
	}
	return PageBox{Height: DefaultPageHeight}
}
