package stages

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

// CertificateStage performs a bare TLS handshake and extracts the leaf
// certificate's issuer/subject/validity/SAN set, generalized from the
// teacher's insecure-skip-verify dial style in internal/recon/httpprobe.go
// (there used only to fetch a response body; here the handshake itself is
// the payload of interest, so no HTTP request is issued past it).
type CertificateStage struct{}

func (CertificateStage) Name() string { return "certificate" }

func (CertificateStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	timeout := cfg.StageTimeout("certificate")
	port := target.Port
	if port == 0 {
		port = 443
	}

	dialer := &net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(target.Host, fmt.Sprintf("%d", port))

	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return model.NewError("dial", err)
	}
	defer rawConn.Close()

	conn := tls.Client(rawConn, &tls.Config{InsecureSkipVerify: true, ServerName: target.Host})
	conn.SetDeadline(time.Now().Add(timeout))
	if err := conn.Handshake(); err != nil {
		return model.NewError("handshake", err)
	}
	defer conn.Close()

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return model.NewEmpty()
	}
	leaf := state.PeerCertificates[0]

	fingerprint := sha256.Sum256(leaf.Raw)

	fields := map[string]interface{}{
		"issuer":      leaf.Issuer.CommonName,
		"subject":     leaf.Subject.CommonName,
		"validFrom":   leaf.NotBefore.UTC().Format(time.RFC3339),
		"validTo":     leaf.NotAfter.UTC().Format(time.RFC3339),
		"fingerprint": fmt.Sprintf("%x", fingerprint),
		"sans":        sortedUnique(leaf.DNSNames),
		"protocol":    tlsVersionName(state.Version),
	}
	return model.NewOK(fields)
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return "unknown"
	}
}
