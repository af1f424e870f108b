package tlscert_test

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"voicerelay/internal/tlscert"
)

func TestEnsureGeneratesUsablePair(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	certPath, keyPath, err := tlscert.Ensure(dir)
	req.NoError(err)

	_, err = tls.LoadX509KeyPair(certPath, keyPath)
	req.NoError(err)

	raw, err := os.ReadFile(certPath)
	req.NoError(err)
	block, _ := pem.Decode(raw)
	req.NotNil(block)
	cert, err := x509.ParseCertificate(block.Bytes)
	req.NoError(err)
	req.Contains(cert.DNSNames, "localhost")
	req.True(cert.BasicConstraintsValid)
}

func TestEnsureIsIdempotent(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	certPath, _, err := tlscert.Ensure(dir)
	req.NoError(err)
	before, err := os.ReadFile(certPath)
	req.NoError(err)

	certAgain, _, err := tlscert.Ensure(dir)
	req.NoError(err)
	req.Equal(certPath, certAgain)

	after, err := os.ReadFile(certPath)
	req.NoError(err)
	req.Equal(before, after, "existing certificate must not be regenerated")
}
