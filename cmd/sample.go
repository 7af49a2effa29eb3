package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"batchstamp/internal/logger"
	"batchstamp/internal/pdfgen"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a sample form PDF to try the tool with",
	Long: `Generate a small production record PDF. Pages listed in --label-pages
carry a "Batch Number:" field, the others do not.`,
	Example: `  batchstamp sample -o form.pdf --pages 3 --label-pages 1,3
  batchstamp stamp form.pdf --batch BN001234`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().StringP("output", "o", "sample_form.pdf", "Output file path")
	sampleCmd.Flags().Int("pages", 3, "Number of pages")
	sampleCmd.Flags().IntSlice("label-pages", []int{1, 3}, "1-based pages that carry the label")
	sampleCmd.Flags().Bool("xref-stream", false, "Write a cross-reference stream instead of a table")
}

func runSample(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("sample")

	outputPath, _ := cmd.Flags().GetString("output")
	pageCount, _ := cmd.Flags().GetInt("pages")
	labelPages, _ := cmd.Flags().GetIntSlice("label-pages")
	xrefStream, _ := cmd.Flags().GetBool("xref-stream")

	if pageCount < 1 {
		return fmt.Errorf("--pages must be at least 1, got %d", pageCount)
	}
	for _, n := range labelPages {
		if n < 1 || n > pageCount {
			return fmt.Errorf("label page %d is outside 1..%d", n, pageCount)
		}
	}

	data, err := pdfgen.Build(pdfgen.SampleForm(pageCount, labelPages), pdfgen.Options{XRefStream: xrefStream})
	if err != nil {
		return fmt.Errorf("failed to build sample PDF: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("pages", pageCount).
		Ints("label_pages", labelPages).
		Int("bytes", len(data)).
		Msg("Sample PDF written")

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d page(s), label on %v)\n", outputPath, pageCount, labelPages)
	return nil
}
