// Package server implements the demo object server the tracer can be
// pointed at: byte-range object reads over HTTP (and optionally
// HTTP/3), a WebSocket fetch endpoint, Prometheus metrics, and
// per-client rate limiting so throughput numbers stay readable.
package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quic-go/quic-go/http3"
	"go.uber.org/zap"

	"github.com/zulfikawr/fetchtrace/internal/blobstore"
	"github.com/zulfikawr/fetchtrace/internal/logging"
	"github.com/zulfikawr/fetchtrace/internal/protocol"
)

// Server serves byte-range reads over a blobstore
type Server struct {
	// ListenAddr is the TCP bind address, e.g. "127.0.0.1:8632".
	// A port of 0 picks a free one; Addr() reports the result.
	ListenAddr string

	// Store holds the objects being served
	Store *blobstore.Store

	// RateLimitMbps throttles each client; 0 means no limit
	RateLimitMbps float64

	// EnableHTTP3 adds a QUIC listener on the same port over UDP
	EnableHTTP3 bool

	addr         string
	httpServer   *http.Server
	http3Server  *http3.Server
	rateLimiters sync.Map // clientIP -> *rateLimiterEntry
	tlsCert      *tls.Certificate

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// handler builds the route table
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	// Health endpoint for realtime status checks
	mux.HandleFunc("/health", s.handleHealth)
	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())
	// WebSocket endpoint for the ws fetch variant
	mux.HandleFunc(protocol.FetchSocketPath, s.handleFetchSocket)
	// Byte-range object reads
	mux.HandleFunc(protocol.ObjectPathPrefix, s.handleObject)
	return mux
}

// Start begins serving and returns the base URL
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.ListenAddr, err)
	}
	s.addr = ln.Addr().String()

	mux := s.handler()
	s.httpServer = &http.Server{
		ReadHeaderTimeout: protocol.ReadHeaderTimeout,
		WriteTimeout:      protocol.WriteTimeout,
		IdleTimeout:       protocol.IdleTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
		Handler:           mux,
	}

	s.shutdownCtx, s.shutdownCancel = context.WithCancel(context.Background())

	go func() {
		_ = s.httpServer.Serve(ln)
	}()

	if s.EnableHTTP3 {
		tlsConfig, err := s.quicTLSConfig()
		if err != nil {
			logging.Warn("Failed to create TLS config for QUIC", zap.Error(err))
		} else {
			s.http3Server = &http3.Server{
				Handler:   mux,
				Addr:      s.addr,
				TLSConfig: tlsConfig,
			}
			go func() {
				if err := s.http3Server.ListenAndServe(); err != nil &&
					err.Error() != "quic: Server closed" &&
					err.Error() != "http3: Server closed" &&
					err.Error() != "http: Server closed" {
					logging.Warn("QUIC server error", zap.Error(err))
				}
			}()
			logging.Info("QUIC/HTTP3 listener started", zap.String("addr", s.addr))
		}
	}

	// Rate limiter cleanup routine to prevent memory leak
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.cleanupRateLimiters()
			case <-s.shutdownCtx.Done():
				return
			}
		}
	}()

	logging.Info("object server started", zap.String("addr", s.addr))
	return "http://" + s.addr, nil
}

// Addr returns the bound address after Start
func (s *Server) Addr() string {
	return s.addr
}

// handleHealth returns a simple JSON payload indicating the server is alive
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok"})
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown() error {
	if s.shutdownCancel != nil {
		s.shutdownCancel()
	}

	if s.http3Server != nil {
		if err := s.http3Server.Close(); err != nil {
			logging.Warn("Error closing HTTP/3 server", zap.Error(err))
		}
	}

	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// generateSelfSignedCert creates a self-signed certificate for QUIC/HTTP3
func (s *Server) generateSelfSignedCert() (*tls.Certificate, error) {
	// ECDSA keys are cheaper for QUIC handshakes
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	host, _, err := net.SplitHostPort(s.addr)
	if err != nil {
		host = "127.0.0.1"
	}

	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   "fetchtrace-server",
			Organization: []string{"fetchtrace"},
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:    []string{host, "localhost"},
		IPAddresses: []net.IP{net.ParseIP(host), net.ParseIP("127.0.0.1")},
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return &tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  privateKey,
		Leaf:        cert,
	}, nil
}

// quicTLSConfig returns TLS configuration for the QUIC listener
func (s *Server) quicTLSConfig() (*tls.Config, error) {
	if s.tlsCert == nil {
		cert, err := s.generateSelfSignedCert()
		if err != nil {
			return nil, err
		}
		s.tlsCert = cert
	}

	return &tls.Config{
		Certificates: []tls.Certificate{*s.tlsCert},
		ClientAuth:   tls.NoClientCert,
	}, nil
}
