package batch_test

import (
	"context"
	"fmt"
	"log"

	"batchstamp/internal/batch"
	"batchstamp/internal/pdfgen"
)

// Example stamps a three page record where pages 1 and 3 carry the label.
func Example() {
	data, err := pdfgen.Build(pdfgen.SampleForm(3, []int{1, 3}), pdfgen.Options{})
	if err != nil {
		log.Fatalf("Failed to build sample: %v", err)
	}

	svc := batch.NewService(batch.DefaultConfig())
	res, err := svc.Process(context.Background(), "record.pdf", data, "BN001234")
	if err != nil {
		log.Fatalf("Failed to stamp: %v", err)
	}

	fmt.Println(res.FileName)
	fmt.Printf("stamped %d of %d pages: %v\n", res.PagesStamped, res.PagesTotal, res.StampedPages)
	// Output:
	// record_BN001234.pdf
	// stamped 2 of 3 pages: [0 2]
}
