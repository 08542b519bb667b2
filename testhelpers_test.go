package cajava

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

// newRootCert returns a self-signed ECDSA root with the given serial.
func newRootCert(t *testing.T, cn string, serial int64) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"TestOrg"}},
		NotBefore:             time.Now().Add(-1 * time.Hour).Truncate(time.Second),
		NotAfter:              time.Now().Add(24 * time.Hour).Truncate(time.Second),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return cert
}

// negateSerial rewrites a one-byte serial of 1 into -1 in a DER certificate.
// The signature no longer verifies, which parsing does not check.
func negateSerial(t *testing.T, der []byte) []byte {
	t.Helper()
	// version [0] INTEGER 2, then serial INTEGER 1
	marker := []byte{0xA0, 0x03, 0x02, 0x01, 0x02, 0x02, 0x01, 0x01}
	i := bytes.Index(der, marker)
	if i < 0 {
		t.Fatal("serial marker not found in certificate")
	}
	out := bytes.Clone(der)
	out[i+len(marker)-1] = 0xFF
	return out
}
