package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ppiankov/riskpoint/internal/observability"
	"github.com/ppiankov/riskpoint/internal/pipeline"
	"github.com/ppiankov/riskpoint/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the questionnaire and scoring API over HTTP",
	Long: `Serve loads the question feed and exposes:
  GET  /api/questions   questionnaire grouped by category
  GET  /api/score       score the query string answers
  POST /api/score       score a JSON object of answers
  GET  /healthz, /readyz, /metrics

Example:
  riskpoint serve --mock --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(nil)
	cfg, logger, p, err := setup(pipeline.WithMetrics(metrics))
	if err != nil {
		return err
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.Timeout)
	_, err = p.Load(loadCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	srv := server.NewServer(cfg.Server.Addr, p, metrics, nil, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
