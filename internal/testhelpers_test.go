package internal

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testCA holds a self-signed CA certificate in both encodings.
type testCA struct {
	cert    *x509.Certificate
	certPEM []byte
	certDER []byte
}

// newTestCA generates a self-signed ECDSA root CA with the given common name.
func newTestCA(t *testing.T, cn string) testCA {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate CA key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          serial.Add(serial, big.NewInt(1)),
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"TestOrg"}},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(10 * 365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create CA cert: %v", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("parse CA cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	return testCA{cert: cert, certPEM: certPEM, certDER: certDER}
}

// writeCertFile writes a new PEM CA certificate to dir/rel and returns its
// path and certificate.
func writeCertFile(t *testing.T, dir, rel, cn string) (string, *x509.Certificate) {
	t.Helper()
	ca := newTestCA(t, cn)
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create cert dir: %v", err)
	}
	if err := os.WriteFile(path, ca.certPEM, 0o644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	return path, ca.cert
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// mapStore is a TrustStore backed by a map, used to observe the reconciler
// without touching JKS encoding.
type mapStore map[string]*x509.Certificate

func (m mapStore) Contains(alias string) bool {
	_, ok := m[alias]
	return ok
}

func (m mapStore) SetCertificate(alias string, cert *x509.Certificate) error {
	m[alias] = cert
	return nil
}

func (m mapStore) Delete(alias string) {
	delete(m, alias)
}

// rejectingStore is a mapStore whose writes always fail.
type rejectingStore struct {
	mapStore
	err error
}

func (s rejectingStore) SetCertificate(string, *x509.Certificate) error {
	return s.err
}
