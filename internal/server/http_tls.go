package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/watch"
)

// buildTLSConfig creates the TLS configuration for the listener. Certificates
// are served through certs so they can be swapped without a restart.
func buildTLSConfig(cfg config.TLSConfig, certs *certReloader) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: certs.GetCertificate,
	}

	configureTLSVersion(cfg, tlsConfig)

	if err := configureClientAuthentication(cfg, tlsConfig); err != nil {
		return nil, err
	}

	return tlsConfig, nil
}

// configureTLSVersion sets the minimum TLS version
func configureTLSVersion(cfg config.TLSConfig, tlsConfig *tls.Config) {
	switch cfg.MinVersion {
	case "1.3":
		tlsConfig.MinVersion = tls.VersionTLS13
	default:
		tlsConfig.MinVersion = tls.VersionTLS12
	}
}

// configureClientAuthentication sets up client authentication for mutual TLS
func configureClientAuthentication(cfg config.TLSConfig, tlsConfig *tls.Config) error {
	if cfg.Mode != "mutual" {
		tlsConfig.ClientAuth = tls.NoClientCert
		return nil
	}

	caCertPool, err := loadCACertificatePool(cfg)
	if err != nil {
		return err
	}

	tlsConfig.ClientCAs = caCertPool
	tlsConfig.ClientAuth = getClientAuthPolicy(cfg.ClientAuthPolicy)
	return nil
}

// loadCACertificatePool loads the CA certificate pool for client verification
func loadCACertificatePool(cfg config.TLSConfig) (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case cfg.CAContent != "":
		caCert = []byte(cfg.CAContent)
	case cfg.CAFile != "":
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return caCertPool, nil
}

// getClientAuthPolicy returns the appropriate client authentication policy
func getClientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

// certReloader holds the current server certificate. When built from files
// it can watch them and swap the certificate in place.
type certReloader struct {
	mu   sync.RWMutex
	cert *tls.Certificate
	leaf *x509.Certificate

	certFile string
	keyFile  string

	watcher *watch.FileWatcher
	onLoad  func(err error)
	logger  *errors.Logger
}

// newCertReloader loads the certificate from content or files
func newCertReloader(cfg config.TLSConfig, logger *errors.Logger) (*certReloader, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	r := &certReloader{logger: logger}

	switch {
	case cfg.CertContent != "" && cfg.KeyContent != "":
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return nil, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		if err := r.set(cert); err != nil {
			return nil, err
		}
	case cfg.UsesFiles():
		r.certFile = cfg.CertFile
		r.keyFile = cfg.KeyFile
		if err := r.reload(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}

	return r, nil
}

func (r *certReloader) set(cert tls.Certificate) error {
	leaf := cert.Leaf
	if leaf == nil {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("failed to parse server certificate: %w", err)
		}
		leaf = parsed
	}

	r.mu.Lock()
	r.cert = &cert
	r.leaf = leaf
	r.mu.Unlock()
	return nil
}

// reload reads the certificate files again. The previous certificate stays
// in use when the new pair is invalid.
func (r *certReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key from files: %w", err)
	}
	return r.set(cert)
}

// GetCertificate implements tls.Config.GetCertificate
func (r *certReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return r.cert, nil
}

// TimeToExpiry returns the time left before the certificate expires
func (r *certReloader) TimeToExpiry() (time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.leaf == nil {
		return 0, fmt.Errorf("no server certificate loaded")
	}
	return time.Until(r.leaf.NotAfter), nil
}

// Watching reports whether the certificate files are being watched
func (r *certReloader) Watching() bool {
	return r != nil && r.watcher != nil && r.watcher.IsRunning()
}

// Start watches the certificate files. It is a no-op for certificates loaded
// from content.
func (r *certReloader) Start(debounce time.Duration) error {
	if r.certFile == "" || r.keyFile == "" {
		return nil
	}

	r.watcher = watch.New([]string{r.certFile, r.keyFile}, debounce, func([]string) {
		err := r.reload()
		if err != nil {
			r.logger.LogError(err, "Failed to reload TLS certificates, keeping previous certificate")
		} else {
			r.logger.Info("TLS certificates reloaded", "cert_file", r.certFile)
		}
		if r.onLoad != nil {
			r.onLoad(err)
		}
	}, r.logger)

	return r.watcher.Start()
}

// Stop stops watching the certificate files
func (r *certReloader) Stop() {
	if r.watcher != nil && r.watcher.IsRunning() {
		if err := r.watcher.Stop(); err != nil {
			r.logger.LogError(err, "Failed to stop certificate watcher")
		}
	}
}
