// Package pdfgen writes small text-only PDF documents.
//
// It backs the "sample" command and builds the fixture documents used by the
// tests. Documents are assembled in a pdfcpu context and written with pdfcpu.
// Every glyph of the embedded font references is 500 units wide so text
// geometry is easy to predict: a string of n characters set at size s spans
// n*s/2 points.
package pdfgen

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"batchstamp/internal/winansi"
)

// A4 page size in points.
const (
	A4Width  = 595.276
	A4Height = 841.89
)

// GlyphWidth is the advance of every glyph in thousandths of the font size.
const GlyphWidth = 500

// Line is a single run of text. X and Y give the baseline origin in PDF
// user space (bottom-left origin).
type Line struct {
	X, Y float64
	Size float64
	Text string
	Font string // resource name, "F1" (Helvetica) or "F2" (Times-Roman); empty means F1
}

// Page describes one page. Zero Width/Height default to A4.
type Page struct {
	Width, Height float64
	Lines         []Line

	// Raw is appended verbatim to the page's last content stream.
	Raw string
}

// Options controls document serialisation.
type Options struct {
	// XRefStream writes a cross-reference stream and object streams instead
	// of a classic table.
	XRefStream bool

	// ContentsArray gives every line its own content stream and lists them
	// in a /Contents array.
	ContentsArray bool
}

// ErrNoPages is returned when Build is called without pages.
var ErrNoPages = errors.New("pdfgen: document needs at least one page")

var fontResources = []struct {
	name, base string
}{
	{"F1", "Helvetica"},
	{"F2", "Times-Roman"},
}

// Build serialises pages into a complete PDF document.
func Build(pages []Page, opts Options) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.WriteXRefStream = opts.XRefStream
	conf.WriteObjectStream = opts.XRefStream

	ctx, err := pdfcpu.CreateContextWithXRefTable(conf, types.PaperSize["A4"])
	if err != nil {
		return nil, fmt.Errorf("pdfgen: create context: %w", err)
	}

	root, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("pdfgen: catalog: %w", err)
	}
	treeRef := root.IndirectRefEntry("Pages")
	if treeRef == nil {
		return nil, errors.New("pdfgen: page tree missing")
	}
	tree, err := ctx.DereferenceDict(*treeRef)
	if err != nil {
		return nil, fmt.Errorf("pdfgen: page tree: %w", err)
	}

	fonts := types.Dict{}
	for _, f := range fontResources {
		ref, err := ctx.IndRefForNewObject(fontDict(f.base))
		if err != nil {
			return nil, fmt.Errorf("pdfgen: font %s: %w", f.base, err)
		}
		fonts[f.name] = *ref
	}

	kids := make(types.Array, 0, len(pages))
	for i, p := range pages {
		ref, err := addPage(ctx, *treeRef, fonts, p, opts.ContentsArray)
		if err != nil {
			return nil, fmt.Errorf("pdfgen: page %d: %w", i+1, err)
		}
		kids = append(kids, *ref)
	}
	tree.Update("Kids", kids)
	tree.Update("Count", types.Integer(len(pages)))

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("pdfgen: write: %w", err)
	}
	return buf.Bytes(), nil
}

func addPage(ctx *model.Context, parent types.IndirectRef, fonts types.Dict, p Page, split bool) (*types.IndirectRef, error) {
	w, h := p.Width, p.Height
	if w == 0 {
		w = A4Width
	}
	if h == 0 {
		h = A4Height
	}

	var contents types.Object
	if split && len(p.Lines) > 0 {
		arr := make(types.Array, 0, len(p.Lines))
		for i, l := range p.Lines {
			raw := ""
			if i == len(p.Lines)-1 {
				raw = p.Raw
			}
			ref, err := contentStream(ctx, []Line{l}, raw)
			if err != nil {
				return nil, err
			}
			arr = append(arr, *ref)
		}
		contents = arr
	} else {
		ref, err := contentStream(ctx, p.Lines, p.Raw)
		if err != nil {
			return nil, err
		}
		contents = *ref
	}

	return ctx.IndRefForNewObject(types.Dict{
		"Type":      types.Name("Page"),
		"Parent":    parent,
		"MediaBox":  types.NewNumberArray(0, 0, w, h),
		"Resources": types.Dict{"Font": fonts},
		"Contents":  contents,
	})
}

func contentStream(ctx *model.Context, lines []Line, raw string) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf([]byte(pageContent(lines) + raw))
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return ctx.IndRefForNewObject(*sd)
}

func fontDict(base string) types.Dict {
	widths := make(types.Array, 256-32)
	for i := range widths {
		widths[i] = types.Integer(GlyphWidth)
	}
	d := types.NewDict()
	d.InsertName("Type", "Font")
	d.InsertName("Subtype", "Type1")
	d.InsertName("BaseFont", base)
	d.InsertName("Encoding", "WinAnsiEncoding")
	d.InsertInt("FirstChar", 32)
	d.InsertInt("LastChar", 255)
	d.Insert("Widths", widths)
	return d
}

func pageContent(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		font := l.Font
		if font == "" {
			font = "F1"
		}
		fmt.Fprintf(&sb, "BT\n/%s %s Tf\n1 0 0 1 %s %s Tm\n%s Tj\nET\n",
			font, num(l.Size), num(l.X), num(l.Y), winansi.Literal(l.Text))
	}
	return sb.String()
}

// TextWidth returns the advance of s set at size in this package's font.
func TextWidth(s string, size float64) float64 {
	return float64(len(winansi.Encode(s))) * GlyphWidth / 1000 * size
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
