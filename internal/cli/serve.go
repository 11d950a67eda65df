package cli

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/ai"
	"resumescore/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the analysis pipeline and the per-user routes.

Available endpoints:
- POST /extract, /score, /match, /analyze: JSON {"text", "targetRole"} or a multipart "file" upload
- POST /advise: AI rewrite advice (requires ai.enabled)
- GET /jobs, /templates: job catalog and role templates
- GET|PUT /me/profile, /me/saved-jobs, /me/applications: per-user data (requires a JWT secret and a store)
- GET /health, /stats

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(cmd *cobra.Command, targets map[string]*string) {
	for name, target := range targets {
		if cmd.Flags().Changed(name) {
			value, _ := cmd.Flags().GetString(name)
			*target = value
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	ctx := cmd.Context()

	applyServeFlags(cmd, map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	})
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := newObservability(cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() {
			if err := st.Close(); err != nil {
				logger.LogError(err, "Failed to close store")
			}
		}()
	}

	aiService, err := ai.NewService(ctx, cfg.AI, logger, om.Metrics())
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	if aiService.Enabled() {
		defer func() {
			if err := aiService.Close(); err != nil {
				logger.LogError(err, "Failed to close AI service")
			}
		}()
	}

	srv, err := server.NewServer(cfg, server.Deps{
		Analyzer:      p.analyzer,
		AI:            aiService,
		Store:         st,
		Vocabulary:    p.vocabulary,
		Jobs:          p.jobs,
		Observability: om,
	}, Version, logger)
	if err != nil {
		return err
	}

	logger.Info("Server configured",
		"address", cfg.Server.Addr(),
		"tls_mode", cfg.Server.TLS.Mode,
		"store", cfg.Store.Driver,
		"ai_enabled", aiService.Enabled(),
		"api_keys", len(cfg.Server.APIKeys),
		"rate_limit", cfg.Server.RateLimit.Enabled)

	return srv.Run(ctx)
}
