package cajava

import (
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/smallstep/pkcs7"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// TrustedCertificate pairs a trust store alias with its certificate.
type TrustedCertificate struct {
	Alias string
	Cert  *x509.Certificate
}

// EncodePKCS12TrustStore creates a PKCS#12 trust store holding only
// certificates, each tagged with its alias as the friendly name. Java 9+
// reads this as a "PKCS12" keystore with the same aliases as the JKS source.
func EncodePKCS12TrustStore(entries []TrustedCertificate, password string) ([]byte, error) {
	if len(entries) == 0 {
		return nil, errors.New("no certificates to encode")
	}
	tsEntries := make([]gopkcs12.TrustStoreEntry, 0, len(entries))
	for _, e := range entries {
		if e.Cert == nil {
			return nil, fmt.Errorf("entry %q has no certificate", e.Alias)
		}
		tsEntries = append(tsEntries, gopkcs12.TrustStoreEntry{
			Cert:         e.Cert,
			FriendlyName: e.Alias,
		})
	}
	data, err := gopkcs12.Modern.EncodeTrustStoreEntries(tsEntries, password)
	if err != nil {
		return nil, fmt.Errorf("encoding PKCS#12 trust store: %w", err)
	}
	return data, nil
}

// DecodePKCS12TrustStore decodes a certificates-only PKCS#12 file.
func DecodePKCS12TrustStore(data []byte, password string) ([]*x509.Certificate, error) {
	certs, err := gopkcs12.DecodeTrustStore(data, password)
	if err != nil {
		return nil, fmt.Errorf("decoding PKCS#12 trust store: %w", err)
	}
	return certs, nil
}

// EncodePKCS7 creates a certs-only PKCS#7/P7B bundle from a certificate chain.
// Returns the DER-encoded PKCS#7 SignedData structure.
func EncodePKCS7(certs []*x509.Certificate) ([]byte, error) {
	if len(certs) == 0 {
		return nil, errors.New("no certificates to encode")
	}
	var derBytes []byte
	for _, cert := range certs {
		derBytes = append(derBytes, cert.Raw...)
	}
	return pkcs7.DegenerateCertificate(derBytes)
}

// DecodePKCS7 decodes a DER-encoded PKCS#7 bundle and returns the certificates it contains.
// Returns an error if decoding fails or the bundle contains no certificates.
func DecodePKCS7(derData []byte) ([]*x509.Certificate, error) {
	p7, err := pkcs7.Parse(derData)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#7: %w", err)
	}
	if len(p7.Certificates) == 0 {
		return nil, errors.New("PKCS#7 bundle contains no certificates")
	}
	return p7.Certificates, nil
}
