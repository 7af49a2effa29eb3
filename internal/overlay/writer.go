// Package overlay stamps text onto PDF pages.
//
// For each stamped page an A4 Form XObject holding the text is created and
// painted on top of the page's existing content. The document is written as
// a pdfcpu incremental update: the original bytes are kept as they are and
// the new and modified objects follow them, so pages that are not stamped
// stay byte-for-byte identical.
package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"batchstamp/internal/logger"
	"batchstamp/internal/winansi"
	"batchstamp/pkg/models"
)

// Overlay geometry and typography.
const (
	OverlayWidth  = 595.276 // A4
	OverlayHeight = 841.89

	FontName = "Times-Roman"
	FontSize = 14.0

	// XObjectName is the resource name of the overlay; a numeric suffix is
	// added when a page already uses it.
	XObjectName = "BatchStamp"
	fontResName = "BN"

	// WinAnsi codes covered by the font's /Widths.
	firstChar = 32
	lastChar  = 255
)

var (
	// ErrUnreadable is returned when pdfcpu cannot parse the document.
	ErrUnreadable = errors.New("unreadable PDF document")

	// ErrEncrypted is returned for encrypted documents, which cannot be
	// extended without the encryption keys.
	ErrEncrypted = errors.New("encrypted PDF documents are not supported")
)

// maxTreeDepth bounds the walk up the page tree for inherited resources.
const maxTreeDepth = 32

// Result is the rebuilt document and what was done to it.
type Result struct {
	PDF          []byte
	PagesStamped int
	PagesTotal   int
	StampedPages []int // 0-based
}

// Apply stamps text on every page listed in positions and returns the
// rebuilt document. Positions for pages beyond the document are ignored.
func Apply(ctx context.Context, data []byte, text string, positions models.Positions) (*Result, error) {
	log := logger.WithComponent("overlay")

	pctx, err := readContext(data)
	if err != nil {
		return nil, err
	}
	if pctx.Encrypt != nil {
		return nil, ErrEncrypted
	}

	res := &Result{PagesTotal: pctx.PageCount}

	var pages []int
	for _, idx := range positions.Pages() {
		if idx >= 0 && idx < pctx.PageCount {
			pages = append(pages, idx)
		}
	}
	if len(pages) == 0 {
		res.PDF = data
		return res, nil
	}

	sep, err := beginIncrement(pctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	fontRef := addObject(pctx, fontDict())
	save, err := addStream(pctx, nil, []byte("q\n"))
	if err != nil {
		return nil, err
	}

	for _, idx := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stampPage(pctx, idx, text, positions[idx], fontRef, save); err != nil {
			return nil, fmt.Errorf("page %d: %w", idx+1, err)
		}
		res.StampedPages = append(res.StampedPages, idx)

		log.Debug().
			Int("page", idx+1).
			Float64("x", positions[idx].X).
			Float64("y", positions[idx].Y).
			Msg("Page stamped")
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + len(sep) + 4096)
	buf.Write(data)
	buf.Write(sep)
	if err := api.WriteIncrement(pctx, &buf); err != nil {
		return nil, fmt.Errorf("write increment: %w", err)
	}

	res.PagesStamped = len(res.StampedPages)
	res.PDF = buf.Bytes()
	return res, nil
}

func readContext(data []byte) (*model.Context, error) {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return pctx, nil
}

// beginIncrement prepares pctx for appending an update to data. The update
// uses the same kind of cross-reference section the last one in data uses.
// It returns the bytes to write between data and the update.
func beginIncrement(pctx *model.Context, data []byte) ([]byte, error) {
	prev := pctx.Write.OffsetPrevXRef
	if prev == nil || *prev < 0 || *prev >= int64(len(data)) {
		return nil, errors.New("no usable startxref offset")
	}
	head := bytes.TrimLeft(data[*prev:], " \t\r\n\f\x00")

	next := nextObjectNumber(pctx)
	if pctx.Size == nil {
		pctx.Size = &next
	} else if *pctx.Size < next {
		*pctx.Size = next
	}

	var sep []byte
	if !bytes.HasSuffix(data, []byte("\n")) && !bytes.HasSuffix(data, []byte("\r")) {
		sep = []byte("\n")
	}

	pctx.WriteXRefStream = !bytes.HasPrefix(head, []byte("xref"))
	pctx.WriteObjectStream = false
	pctx.Write.Increment = true
	pctx.Write.Offset = int64(len(data) + len(sep))
	return sep, nil
}

// nextObjectNumber returns the first object number free for new objects.
func nextObjectNumber(pctx *model.Context) int {
	next := 0
	if pctx.Size != nil {
		next = *pctx.Size
	}
	for n := range pctx.Table {
		if n >= next {
			next = n + 1
		}
	}
	return next
}

// addObject appends obj to the increment and returns its reference.
func addObject(pctx *model.Context, obj types.Object) types.IndirectRef {
	objNr, _ := pctx.InsertObject(obj)
	pctx.Write.IncrementWithObjNr(objNr)
	return *types.NewIndirectRef(objNr, 0)
}

// addStream appends an uncompressed stream object.
func addStream(pctx *model.Context, d types.Dict, content []byte) (types.IndirectRef, error) {
	if d == nil {
		d = types.NewDict()
	}
	sd := types.StreamDict{Dict: d, Content: content}
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, err
	}
	return addObject(pctx, sd), nil
}

// fontDict describes the overlay font with its WinAnsi advance widths.
func fontDict() types.Dict {
	widths := make(types.Array, 0, lastChar-firstChar+1)
	for c := firstChar; c <= lastChar; c++ {
		widths = append(widths, types.Integer(font.CharWidth(FontName, rune(c))))
	}
	d := types.NewDict()
	d.InsertName("Type", "Font")
	d.InsertName("Subtype", "Type1")
	d.InsertName("BaseFont", FontName)
	d.InsertName("Encoding", "WinAnsiEncoding")
	d.InsertInt("FirstChar", firstChar)
	d.InsertInt("LastChar", lastChar)
	d.Insert("Widths", widths)
	return d
}

// stampPage adds the overlay for one page and supersedes its page object.
func stampPage(pctx *model.Context, idx int, text string, pos models.Position, fontRef, save types.IndirectRef) error {
	pageRef, err := pctx.PageDictIndRef(idx + 1)
	if err != nil {
		return err
	}
	if pageRef == nil {
		return errors.New("page object not found")
	}
	objNr := pageRef.ObjectNumber.Value()
	entry, ok := pctx.FindTableEntryLight(objNr)
	if !ok {
		return errors.New("page object not found")
	}
	page, ok := entry.Object.(types.Dict)
	if !ok {
		return errors.New("page dictionary missing")
	}

	form, err := addStream(pctx, types.Dict{
		"Type":    types.Name("XObject"),
		"Subtype": types.Name("Form"),
		"BBox":    types.NewNumberArray(0, 0, OverlayWidth, OverlayHeight),
		"Resources": types.Dict{
			"Font": types.Dict{fontResName: fontRef},
		},
	}, overlayContent(text, pos))
	if err != nil {
		return err
	}

	resources, err := inheritedResources(pctx, page)
	if err != nil {
		return err
	}
	resources = cloneDict(resources)

	xobjects := types.Dict{}
	if o, ok := resources["XObject"]; ok && o != nil {
		existing, err := pctx.DereferenceDict(o)
		if err != nil {
			return err
		}
		xobjects = cloneDict(existing)
	}
	name := freeName(xobjects, XObjectName)
	xobjects[name] = form
	resources["XObject"] = xobjects

	paint, err := addStream(pctx, nil, []byte(fmt.Sprintf("Q\nq\n/%s Do\nQ\n", name)))
	if err != nil {
		return err
	}

	contents, err := contentRefs(pctx, page)
	if err != nil {
		return err
	}
	all := make(types.Array, 0, len(contents)+2)
	all = append(all, save)
	all = append(all, contents...)
	all = append(all, paint)

	stamped := cloneDict(page)
	stamped["Contents"] = all
	stamped["Resources"] = resources
	entry.Object = stamped
	pctx.Write.IncrementWithObjNr(objNr)
	return nil
}

// overlayContent draws text at the position's render point.
func overlayContent(text string, pos models.Position) []byte {
	x, y := pos.RenderPoint()
	return []byte(fmt.Sprintf("BT\n/%s %s Tf\n1 0 0 1 %s %s Tm\n%s Tj\nET\n",
		fontResName, num(FontSize), num(x), num(y), winansi.Literal(text)))
}

// contentRefs returns the page's content streams as an array of references.
func contentRefs(pctx *model.Context, page types.Dict) (types.Array, error) {
	o, ok := page["Contents"]
	if !ok || o == nil {
		return nil, nil
	}
	switch v := o.(type) {
	case types.Array:
		return v, nil
	case types.IndirectRef:
		target, err := pctx.Dereference(v)
		if err != nil {
			return nil, err
		}
		if arr, ok := target.(types.Array); ok {
			return arr, nil
		}
		return types.Array{v}, nil
	case *types.IndirectRef:
		return contentRefs(pctx, types.Dict{"Contents": *v})
	default:
		return nil, fmt.Errorf("unexpected /Contents type %T", o)
	}
}

// inheritedResources resolves /Resources on the page or its ancestors.
func inheritedResources(pctx *model.Context, page types.Dict) (types.Dict, error) {
	d := page
	for depth := 0; depth < maxTreeDepth && d != nil; depth++ {
		if o, ok := d["Resources"]; ok && o != nil {
			res, err := pctx.DereferenceDict(o)
			if err != nil {
				return nil, err
			}
			if res != nil {
				return res, nil
			}
		}
		parent, ok := d["Parent"]
		if !ok || parent == nil {
			break
		}
		next, err := pctx.DereferenceDict(parent)
		if err != nil {
			return nil, err
		}
		d = next
	}
	return types.Dict{}, nil
}

func freeName(d types.Dict, base string) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := d[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}

// num formats a coordinate with at most three decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

// cloneDict copies the top level of d.
func cloneDict(d types.Dict) types.Dict {
	out := make(types.Dict, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}
