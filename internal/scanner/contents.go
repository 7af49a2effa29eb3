package scanner

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"batchstamp/internal/logger"
)

// flattenContents returns data with every multi-stream page rewritten to a
// single content stream, the only form ledongthuc/pdf interprets. Documents
// without such pages, and documents pdfcpu cannot process, come back as they
// are.
func flattenContents(data []byte) []byte {
	log := logger.WithComponent("scanner")

	out, n, err := joinPageContents(data)
	if err != nil {
		log.Debug().Err(err).Msg("Content streams left as they are")
		return data
	}
	if n > 0 {
		log.Debug().Int("pages", n).Msg("Joined multi-stream page contents")
	}
	return out
}

// joinPageContents does the work of flattenContents and reports how many
// pages were rewritten.
func joinPageContents(data []byte) ([]byte, int, error) {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return data, 0, err
	}
	if pctx.Encrypt != nil {
		return data, 0, nil
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return data, 0, err
	}

	joined := 0
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		page, _, _, err := pctx.PageDict(pageNr, false)
		if err != nil {
			return data, 0, err
		}
		if page == nil {
			continue
		}
		ok, err := joinContents(pctx, page)
		if err != nil {
			return data, 0, fmt.Errorf("page %d: %w", pageNr, err)
		}
		if ok {
			joined++
		}
	}
	if joined == 0 {
		return data, 0, nil
	}

	var buf bytes.Buffer
	if err := api.WriteContext(pctx, &buf); err != nil {
		return data, 0, err
	}
	return buf.Bytes(), joined, nil
}

// joinContents replaces an array /Contents entry with one stream holding the
// decoded streams in order, separated by newlines.
func joinContents(pctx *model.Context, page types.Dict) (bool, error) {
	o, found := page.Find("Contents")
	if !found || o == nil {
		return false, nil
	}
	o, err := pctx.Dereference(o)
	if err != nil {
		return false, err
	}
	arr, ok := o.(types.Array)
	if !ok {
		return false, nil
	}

	var content bytes.Buffer
	for _, el := range arr {
		sd, _, err := pctx.DereferenceStreamDict(el)
		if err != nil {
			return false, err
		}
		if sd == nil {
			continue
		}
		if err := sd.Decode(); err != nil {
			return false, err
		}
		content.Write(sd.Content)
		content.WriteByte('\n')
	}

	sd, err := pctx.NewStreamDictForBuf(content.Bytes())
	if err != nil {
		return false, err
	}
	if err := sd.Encode(); err != nil {
		return false, err
	}
	ref, err := pctx.IndRefForNewObject(*sd)
	if err != nil {
		return false, err
	}
	page.Update("Contents", *ref)
	return true, nil
}
