package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"resumescore/internal/watch"
)

const shutdownTimeout = 30 * time.Second

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := s.setupHTTPServer()

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	if err := s.startWatchers(); err != nil {
		s.stopWatchers()
		return err
	}

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// configureTLS loads certificates and sets the TLS config when TLS is enabled
func (s *Server) configureTLS(httpServer *http.Server) error {
	tlsCfg := s.config.TLS
	if !tlsCfg.Enabled() {
		s.logger.Info("TLS disabled, serving plain HTTP")
		return nil
	}

	certs, err := newCertReloader(tlsCfg, s.logger)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	certs.onLoad = func(err error) {
		s.metrics.RecordFileReload(context.Background(), certs.certFile, err)
	}

	tlsConfig, err := buildTLSConfig(tlsCfg, certs)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}

	httpServer.TLSConfig = tlsConfig
	s.certs = certs
	s.logger.Info("TLS enabled",
		"mode", tlsCfg.Mode,
		"min_version", tlsCfg.MinVersion,
		"watch_files", tlsCfg.WatchFiles && tlsCfg.UsesFiles())
	return nil
}

// startWatchers starts reloading the vocabulary, job catalog and
// certificates when their files change
func (s *Server) startWatchers() error {
	if s.certs != nil && s.config.TLS.WatchFiles {
		if err := s.certs.Start(s.analysis.WatchDebounce); err != nil {
			return fmt.Errorf("failed to watch certificate files: %w", err)
		}
	}

	if !s.analysis.WatchFiles {
		return nil
	}

	if path := s.analysis.VocabularyFile; path != "" {
		w := watch.New([]string{path}, s.analysis.WatchDebounce, func([]string) {
			err := s.vocabulary.Reload(path)
			s.metrics.RecordFileReload(context.Background(), "vocabulary", err)
			if err != nil {
				s.logger.LogError(err, "Failed to reload vocabulary, keeping previous tables", "path", path)
				return
			}
			s.logger.Info("Vocabulary reloaded", "path", path, "version", s.vocabulary.Get().Version)
		}, s.logger)
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to watch vocabulary file: %w", err)
		}
		s.watchers = append(s.watchers, w)
	}

	if path := s.analysis.JobsFile; path != "" {
		w := watch.New([]string{path}, s.analysis.WatchDebounce, func([]string) {
			err := s.jobs.Reload(path)
			s.metrics.RecordFileReload(context.Background(), "jobs", err)
			if err != nil {
				s.logger.LogError(err, "Failed to reload job catalog, keeping previous postings", "path", path)
				return
			}
			s.logger.Info("Job catalog reloaded", "path", path, "jobs", s.jobs.Len())
		}, s.logger)
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to watch jobs file: %w", err)
		}
		s.watchers = append(s.watchers, w)
	}

	return nil
}

func (s *Server) stopWatchers() {
	for _, w := range s.watchers {
		if err := w.Stop(); err != nil {
			s.logger.LogError(err, "Failed to stop file watcher", "files", w.Files())
		}
	}
	s.watchers = nil
	if s.certs != nil {
		s.certs.Stop()
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cleanup()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.cleanup()

	s.logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanup stops the watchers and the rate limiter
func (s *Server) cleanup() {
	s.stopWatchers()
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.logger.Info("Rate limiter cleaned up")
	}
}
