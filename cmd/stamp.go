package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"batchstamp/internal/batch"
	"batchstamp/internal/logger"
)

var stampCmd = &cobra.Command{
	Use:   "stamp [pdf-file]",
	Short: "Add a batch number next to every \"Batch Number:\" label",
	Long: `Scan a PDF for the text "Batch Number:" and write the given batch number
to the right of the first occurrence on each page.

Pages without the label are copied unchanged. The result is written beside
the input as <name>_<batch-number>.pdf unless --output is given.`,
	Example: `  # Stamp record.pdf, writes record_BN001234.pdf
  batchstamp stamp record.pdf --batch BN001234

  # Choose the output path
  batchstamp stamp record.pdf -b BN001234 -o out/stamped.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runStamp,
}

func init() {
	rootCmd.AddCommand(stampCmd)

	stampCmd.Flags().StringP("batch", "b", "", "Batch number to insert (required)")
	stampCmd.Flags().StringP("output", "o", "", "Output file path (default: <name>_<batch>.pdf beside the input)")
	stampCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
	_ = stampCmd.MarkFlagRequired("batch")
}

func runStamp(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("stamp")

	batchNumber, _ := cmd.Flags().GetString("batch")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info().
		Str("file", pdfPath).
		Str("batch", batchNumber).
		Str("output", outputPath).
		Msg("Starting batch number stamping")

	if _, err := validatePDFFile(pdfPath, cfg.MaxUploadBytes(), log); err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF file: %w", err)
	}

	startTime := time.Now()
	svc := batch.NewService(batch.Config{MaxFileSize: cfg.MaxUploadBytes()})
	result, err := svc.Process(ctx, filepath.Base(pdfPath), data, batchNumber)
	if err != nil {
		return handleStampError(err, log)
	}

	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(pdfPath), result.FileName)
	}
	if same, _ := samePath(pdfPath, outputPath); same {
		return fmt.Errorf("output would overwrite the input file: %s", outputPath)
	}

	if err := os.WriteFile(outputPath, result.PDF, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("pages_stamped", result.PagesStamped).
		Int("pages_total", result.PagesTotal).
		Dur("duration", time.Since(startTime)).
		Msg("Stamped PDF written")

	fmt.Fprintf(cmd.OutOrStdout(), "Success! Added batch number to %d page(s).\n", result.PagesStamped)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", outputPath)
	return nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
