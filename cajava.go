// Package cajava provides certificate decoding, fingerprinting, and PKCS
// container helpers used to keep a Java trust store in sync with the
// system certificate directory.
package cajava

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	ctx509 "github.com/google/certificate-transparency-go/x509"
)

// ParsePEMCertificates parses all certificates from a PEM bundle.
func ParsePEMCertificates(pemData []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := pemData
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("no certificates found in PEM data")
	}
	return certs, nil
}

// ParseCertificatesAny attempts to parse certificates from raw bytes, trying
// DER encoding first, then PEM (may contain multiple certs), then PKCS#7/P7B.
func ParseCertificatesAny(data []byte) ([]*x509.Certificate, error) {
	cert, derErr := x509.ParseCertificate(data)
	if derErr == nil {
		return []*x509.Certificate{cert}, nil
	}
	certs, pemErr := ParsePEMCertificates(data)
	if pemErr == nil {
		return certs, nil
	}
	certs, p7Err := DecodePKCS7(data)
	if p7Err == nil {
		return certs, nil
	}
	return nil, fmt.Errorf("not DER (%v) or PEM (%v) or PKCS#7 (%v)", derErr, pemErr, p7Err)
}

// DecodeCertificate returns the first certificate contained in data. It
// accepts the same encodings as ParseCertificatesAny and, when the standard
// library refuses a DER certificate (negative serials, odd string types in
// old CA roots), retries with a lenient parser.
func DecodeCertificate(data []byte) (*x509.Certificate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty certificate data")
	}

	certs, err := ParseCertificatesAny(data)
	if err == nil {
		return certs[0], nil
	}

	der := data
	if IsPEM(data) {
		block, _ := pem.Decode(data)
		if block == nil || block.Type != "CERTIFICATE" {
			return nil, err
		}
		der = block.Bytes
	}
	cert, lenientErr := parseCertificateLenient(der)
	if lenientErr != nil {
		return nil, err
	}
	return cert, nil
}

// parseCertificateLenient parses DER with the certificate-transparency x509
// fork, which reports most RFC 5280 violations as non-fatal, and copies the
// fields this module relies on into a standard library certificate.
func parseCertificateLenient(der []byte) (*x509.Certificate, error) {
	ct, err := ctx509.ParseCertificate(der)
	if ct == nil || ctx509.IsFatal(err) {
		if err == nil {
			err = errors.New("lenient parse returned no certificate")
		}
		return nil, fmt.Errorf("lenient parse: %w", err)
	}

	cert := &x509.Certificate{
		Raw:                     ct.Raw,
		RawTBSCertificate:       ct.RawTBSCertificate,
		RawSubjectPublicKeyInfo: ct.RawSubjectPublicKeyInfo,
		RawSubject:              ct.RawSubject,
		RawIssuer:               ct.RawIssuer,
		SerialNumber:            ct.SerialNumber,
		NotBefore:               ct.NotBefore,
		NotAfter:                ct.NotAfter,
		IsCA:                    ct.IsCA,
		BasicConstraintsValid:   ct.BasicConstraintsValid,
		SubjectKeyId:            ct.SubjectKeyId,
		AuthorityKeyId:          ct.AuthorityKeyId,
	}
	cert.Subject = nameFromRaw(ct.RawSubject)
	cert.Issuer = nameFromRaw(ct.RawIssuer)
	return cert, nil
}

func nameFromRaw(raw []byte) pkix.Name {
	var name pkix.Name
	var rdn pkix.RDNSequence
	if _, err := asn1.Unmarshal(raw, &rdn); err == nil {
		name.FillFromRDNSequence(&rdn)
	}
	return name
}

// CertToPEM encodes a certificate as PEM.
func CertToPEM(cert *x509.Certificate) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: cert.Raw,
	}))
}

// CertFingerprint returns the SHA-256 fingerprint of a certificate as a lowercase hex string.
func CertFingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(hash[:])
}

// CertFingerprintColonSHA256 returns the SHA-256 fingerprint of a certificate
// in uppercase colon-separated hex format (AA:BB:CC:...), matching the format
// printed by keytool -list.
func CertFingerprintColonSHA256(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return strings.ToUpper(ColonHex(hash[:]))
}

// CertFingerprintColonSHA1 returns the SHA-1 fingerprint of a certificate
// in uppercase colon-separated hex format. Pre-Java 9 keytool prints only this one.
func CertFingerprintColonSHA1(cert *x509.Certificate) string {
	hash := sha1.Sum(cert.Raw)
	return strings.ToUpper(ColonHex(hash[:]))
}

// ColonHex formats a byte slice as colon-separated lowercase hex.
func ColonHex(b []byte) string {
	h := hex.EncodeToString(b)
	parts := make([]string, 0, len(h)/2)
	for i := 0; i < len(h); i += 2 {
		end := min(i+2, len(h))
		parts = append(parts, h[i:end])
	}
	return strings.Join(parts, ":")
}

// GetCertificateType determines if a certificate is root, intermediate, or leaf.
func GetCertificateType(cert *x509.Certificate) string {
	if cert.IsCA {
		if bytes.Equal(cert.RawIssuer, cert.RawSubject) {
			return "root"
		}
		return "intermediate"
	}
	return "leaf"
}

// FormatCN returns the common name of the certificate for display. Falls back
// to the first organization, then to "serial:<dec>".
func FormatCN(cert *x509.Certificate) string {
	if cert.Subject.CommonName != "" {
		return cert.Subject.CommonName
	}
	if len(cert.Subject.Organization) > 0 {
		return cert.Subject.Organization[0]
	}
	if cert.SerialNumber == nil {
		return "serial:unknown"
	}
	return fmt.Sprintf("serial:%s", cert.SerialNumber.String())
}

// IsPEM returns true if the data appears to contain PEM-encoded content.
func IsPEM(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN"))
}
