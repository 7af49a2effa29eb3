package pdfgen

import "fmt"

// SampleForm returns pages of a simple production record. Pages whose
// 1-based number appears in labelPages carry a "Batch Number:" field.
func SampleForm(pageCount int, labelPages []int) []Page {
	withLabel := make(map[int]bool, len(labelPages))
	for _, n := range labelPages {
		withLabel[n] = true
	}

	pages := make([]Page, 0, pageCount)
	for n := 1; n <= pageCount; n++ {
		lines := []Line{
			{X: 72, Y: 770, Size: 18, Text: "Production Record"},
			{X: 72, Y: 740, Size: 11, Text: fmt.Sprintf("Page %d of %d", n, pageCount)},
			{X: 72, Y: 700, Size: 11, Text: "Product: Example compound"},
		}
		if withLabel[n] {
			lines = append(lines, Line{X: 72, Y: 680, Size: 11, Text: "Batch Number:"})
		}
		lines = append(lines,
			Line{X: 72, Y: 660, Size: 11, Text: "Operator:"},
			Line{X: 72, Y: 640, Size: 11, Text: "Date:"},
		)
		pages = append(pages, Page{Lines: lines})
	}
	return pages
}
