package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"batchstamp/internal/batch"
	"batchstamp/internal/logger"
	"batchstamp/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan [pdf-file]",
	Short: "Show where the batch number would be placed",
	Long: `Read a PDF and print, per page, the anchor to the right of the first
"Batch Number:" label. Nothing is written.

Coordinates use a top-left origin in PDF points. The render point is the
baseline origin in PDF user space where the number is drawn.`,
	Example: `  # Human readable listing
  batchstamp scan record.pdf

  # Machine readable output including every text line
  batchstamp scan record.pdf --json --lines`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// ScanOutput represents the JSON output structure when --json flag is used
type ScanOutput struct {
	FileName   string         `json:"file_name"`
	PagesTotal int            `json:"pages_total"`
	Positions  []PagePosition `json:"positions"`
	Lines      []PageLine     `json:"lines,omitempty"`
}

// PagePosition is one page anchor; Page is 1-based.
type PagePosition struct {
	Page       int     `json:"page"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	PageHeight float64 `json:"page_height"`
	RenderX    float64 `json:"render_x"`
	RenderY    float64 `json:"render_y"`
}

// PageLine is one reconstructed text line; Page is 1-based.
type PageLine struct {
	Page int        `json:"page"`
	Text string     `json:"text"`
	BBox [4]float64 `json:"bbox"`
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("json", false, "Output as JSON")
	scanCmd.Flags().Bool("lines", false, "Include every reconstructed text line")
	scanCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	withLines, _ := cmd.Flags().GetBool("lines")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fileInfo, err := validatePDFFile(pdfPath, cfg.MaxUploadBytes(), log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF file: %w", err)
	}

	svc := batch.NewService(batch.Config{MaxFileSize: cfg.MaxUploadBytes()})
	layouts, err := svc.Layouts(ctx, data)
	if err != nil {
		return handleStampError(err, log)
	}
	positions := scanner.Locate(layouts)

	out := ScanOutput{
		FileName:   fileInfo.Name(),
		PagesTotal: len(layouts),
		Positions:  make([]PagePosition, 0, len(positions)),
	}
	for _, idx := range positions.Pages() {
		pos := positions[idx]
		rx, ry := pos.RenderPoint()
		out.Positions = append(out.Positions, PagePosition{
			Page:       idx + 1,
			X:          pos.X,
			Y:          pos.Y,
			PageHeight: pos.PageHeight,
			RenderX:    rx,
			RenderY:    ry,
		})
	}
	if withLines {
		for i, layout := range layouts {
			for _, line := range layout.Lines {
				out.Lines = append(out.Lines, PageLine{Page: i + 1, Text: line.Text(), BBox: lineBBox(line)})
			}
		}
	}

	log.Info().
		Str("file", pdfPath).
		Int("pages", out.PagesTotal).
		Int("matches", len(out.Positions)).
		Msg("Scan finished")

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		return nil
	}
	return printScan(cmd.OutOrStdout(), out)
}

func lineBBox(line scanner.Line) [4]float64 {
	if len(line.Spans) == 0 {
		return [4]float64{}
	}
	b := line.Spans[0].BBox
	for _, s := range line.Spans[1:] {
		b.X0 = min(b.X0, s.BBox.X0)
		b.Y0 = min(b.Y0, s.BBox.Y0)
		b.X1 = max(b.X1, s.BBox.X1)
		b.Y1 = max(b.Y1, s.BBox.Y1)
	}
	return [4]float64{b.X0, b.Y0, b.X1, b.Y1}
}

func printScan(w io.Writer, out ScanOutput) error {
	fmt.Fprintf(w, "=== %s: %d page(s) ===\n", out.FileName, out.PagesTotal)
	if len(out.Positions) == 0 {
		fmt.Fprintln(w, "Could not find the text 'Batch Number:' in this document.")
	}
	for _, p := range out.Positions {
		fmt.Fprintf(w, "Page %d: anchor (%.2f, %.2f), render point (%.2f, %.2f)\n",
			p.Page, p.X, p.Y, p.RenderX, p.RenderY)
	}
	if len(out.Lines) > 0 {
		fmt.Fprintln(w, "\n=== Text lines ===")
		for _, l := range out.Lines {
			fmt.Fprintf(w, "p%d [%.1f %.1f %.1f %.1f] %s\n", l.Page, l.BBox[0], l.BBox[1], l.BBox[2], l.BBox[3], l.Text)
		}
	}
	return nil
}
