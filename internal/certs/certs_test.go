package certs

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafOf(t *testing.T, cert tls.Certificate) *x509.Certificate {
	t.Helper()
	require.Len(t, cert.Certificate, 1)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf
}

func TestCertificateCreatesAndReuses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	store := NewStore(dir)

	first, err := store.Certificate()
	require.NoError(t, err)

	leaf := leafOf(t, first)
	assert.Equal(t, []string{"finanzas"}, leaf.Subject.Organization)
	assert.Contains(t, leaf.DNSNames, "localhost")
	assert.Len(t, leaf.IPAddresses, 2)
	assert.NoError(t, leaf.VerifyHostname("127.0.0.1"))
	assert.True(t, leaf.NotAfter.After(time.Now().Add(364*24*time.Hour)))

	certFile, keyFile := store.Paths()
	info, err := os.Stat(keyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.FileExists(t, certFile)

	second, err := NewStore(dir).Certificate()
	require.NoError(t, err)
	assert.Equal(t, leaf.SerialNumber, leafOf(t, second).SerialNumber)
}

func TestCertificateReplacesUnusable(t *testing.T) {
	tests := []struct {
		prepare func(t *testing.T, dir string)
		name    string
	}{
		{
			name: "garbage files",
			prepare: func(t *testing.T, dir string) {
				t.Helper()
				require.NoError(t, os.MkdirAll(dir, 0700))
				require.NoError(t, os.WriteFile(filepath.Join(dir, certFileName), []byte("nope"), 0600))
				require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("nope"), 0600))
			},
		},
		{
			name: "near expiry",
			prepare: func(t *testing.T, dir string) {
				t.Helper()
				s := NewStore(dir)
				s.validity = 10 * 24 * time.Hour
				_, err := s.generate()
				require.NoError(t, err)
			},
		},
		{
			name: "missing host",
			prepare: func(t *testing.T, dir string) {
				t.Helper()
				_, err := NewStore(dir, "ledger.internal").Certificate()
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.prepare(t, dir)

			cert, err := NewStore(dir).Certificate()
			require.NoError(t, err)

			leaf := leafOf(t, cert)
			assert.NoError(t, leaf.VerifyHostname("localhost"))
			assert.True(t, leaf.NotAfter.After(time.Now().Add(renewBefore)))
		})
	}
}

func TestCustomHosts(t *testing.T) {
	cert, err := NewStore(t.TempDir(), "ledger.lan", "10.0.0.5").Certificate()
	require.NoError(t, err)

	leaf := leafOf(t, cert)
	assert.Equal(t, "ledger.lan", leaf.Subject.CommonName)
	assert.Equal(t, []string{"ledger.lan"}, leaf.DNSNames)
	assert.NoError(t, leaf.VerifyHostname("10.0.0.5"))
	assert.Error(t, leaf.VerifyHostname("localhost"))
}

func TestTLSConfig(t *testing.T) {
	cfg, err := NewStore(t.TempDir()).TLSConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Len(t, cfg.Certificates, 1)
}

func TestCertificateDirectoryNotWritable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	_, err := NewStore(filepath.Join(blocker, "certs")).Certificate()
	assert.ErrorContains(t, err, "failed to create certificate directory")
}
