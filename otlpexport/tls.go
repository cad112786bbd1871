package otlpexport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig carries the file-path inputs used to build the client-side
// TLS configuration for an exporter's transport. Validate checks only
// that the paths are consistent and the files exist; Load reads and
// parses the CA bundle and client key pair into a *tls.Config.
type TLSConfig struct {
	Insecure       bool
	CACertFile     string
	ClientCertFile string
	ClientKeyFile  string
}

// ErrInvalidConfig is returned when a TLSConfig is malformed in a way
// that must be caught before any exporter is constructed.
type ErrInvalidConfig struct {
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("config_invalid: %s", e.Reason)
}

// Validate reports an ErrInvalidConfig when exactly one of
// ClientCertFile/ClientKeyFile is set, or when a referenced file does
// not exist on disk.
func (c TLSConfig) Validate() error {
	if (c.ClientCertFile == "") != (c.ClientKeyFile == "") {
		return &ErrInvalidConfig{Reason: "client certificate and client key must both be set, or neither"}
	}

	for _, path := range []string{c.CACertFile, c.ClientCertFile, c.ClientKeyFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return &ErrInvalidConfig{Reason: fmt.Sprintf("cannot read %q: %s", path, err)}
		}
	}

	return nil
}

// Load builds a *tls.Config from c. Validate should be called first;
// Load assumes the file-path invariants it checks already hold.
func (c TLSConfig) Load() (*tls.Config, error) {
	if c.Insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil
	}

	cfg := &tls.Config{}

	if c.CACertFile != "" {
		pem, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("parse CA certificate %q: no certificates found", c.CACertFile)
		}
		cfg.RootCAs = pool
	}

	if c.ClientCertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCertFile, c.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
