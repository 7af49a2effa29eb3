package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"batchstamp/internal/batch"
	"batchstamp/internal/logger"
	"batchstamp/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web form",
	Long: `Start the HTTP server with the upload form.

Open the address in a browser, choose a PDF, enter the batch number and
press "Process PDF" to download the stamped document.

Environment variables:
  HTTP_ADDR              - Listen address (default :8080)
  MAX_UPLOAD_MB          - Largest accepted PDF (default 20)
  READ_TIMEOUT_SECONDS   - HTTP read timeout (default 30)
  WRITE_TIMEOUT_SECONDS  - HTTP write timeout (default 60)`,
	Example: `  batchstamp serve
  batchstamp serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("serve")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}

	stamper := batch.NewService(batch.Config{MaxFileSize: cfg.MaxUploadBytes()})
	srv, err := web.NewServer(web.Config{
		Addr:           cfg.HTTPAddr,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	}, stamper)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("version", version).
		Str("addr", cfg.HTTPAddr).
		Msg("Starting web server")

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	log.Info().Msg("Web server stopped")
	return nil
}
