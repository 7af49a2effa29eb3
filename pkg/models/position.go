package models

import "sort"

// Position is the anchor recorded for one page where the label was found.
type Position struct {
	X          float64 `json:"x"`           // Right edge of the label span plus the gap
	Y          float64 `json:"y"`           // Vertical centre of the label, top-left origin
	PageHeight float64 `json:"page_height"` // Height of the page the anchor belongs to
}

// RenderPoint returns the point in PDF user space (bottom-left origin)
// at which the batch number is drawn.
func (p Position) RenderPoint() (x, y float64) {
	return p.X, p.PageHeight - p.Y
}

// Positions maps a 0-based page index to its anchor.
// An empty map means the label was not found anywhere.
type Positions map[int]Position

// Pages returns the page indices in ascending order.
func (p Positions) Pages() []int {
	pages := make([]int, 0, len(p))
	for idx := range p {
		pages = append(pages, idx)
	}
	sort.Ints(pages)
	return pages
}

// StampResult is the outcome of stamping one document.
type StampResult struct {
	PDF          []byte    // Rebuilt document
	FileName     string    // Suggested download name
	PagesStamped int       // Number of pages that received the batch number
	PagesTotal   int       // Number of pages in the document
	StampedPages []int     // 0-based indices of stamped pages
	Positions    Positions // Anchors used for stamping
}
