package scanner

import (
	"strings"

	"batchstamp/pkg/models"
)

// Label is the text searched for on every page.
const Label = "Batch Number:"

const (
	// AnchorGap separates the label's right edge from the stamped text.
	AnchorGap = 10.0
	// BaselineCorrection shifts the anchor from the label centre towards its baseline.
	BaselineCorrection = 4.0
)

// AnchorFor derives the stamp anchor from the label span's box.
func AnchorFor(bbox Rect, pageHeight float64) models.Position {
	return models.Position{
		X:          bbox.X1 + AnchorGap,
		Y:          (bbox.Y0+bbox.Y1)/2 + BaselineCorrection,
		PageHeight: pageHeight,
	}
}

// Locate returns the anchor of the first label occurrence on every page.
// Pages are keyed by their 0-based index in pages.
func Locate(pages []PageLayout) models.Positions {
	positions := make(models.Positions)
	for idx, page := range pages {
		if pos, ok := locatePage(page); ok {
			positions[idx] = pos
		}
	}
	return positions
}

func locatePage(page PageLayout) (models.Position, bool) {
	for _, line := range page.Lines {
		if !strings.Contains(line.Text(), Label) {
			continue
		}
		// A label split across spans leaves the line without an anchor.
		for _, span := range line.Spans {
			if strings.Contains(span.Text, Label) {
				return AnchorFor(span.BBox, page.Height), true
			}
		}
	}
	return models.Position{}, false
}
