package main

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sensiblebit/cajava"
	"github.com/sensiblebit/cajava/internal"
)

func writeTestCert(t *testing.T, path, cn string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
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
	if err := os.WriteFile(path, []byte(cajava.CertToPEM(cert)), 0o644); err != nil {
		t.Fatal(err)
	}
	return cert
}

func TestRewriteLegacyArgs(t *testing.T) {
	// WHY: Maintainer scripts call the updater with keytool's single-dash -storepass, which pflag would read as a cluster of short flags.
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "separate_value", in: []string{"-storepass", "secret"}, want: []string{"--storepass", "secret"}},
		{name: "equals_value", in: []string{"-storepass=secret"}, want: []string{"--storepass=secret"}},
		{name: "double_dash_untouched", in: []string{"--storepass", "x"}, want: []string{"--storepass", "x"}},
		{name: "after_terminator", in: []string{"--", "-storepass"}, want: []string{"--", "-storepass"}},
		{name: "other_flags", in: []string{"-l", "debug", "list"}, want: []string{"-l", "debug", "list"}},
		{name: "empty", in: []string{}, want: []string{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := rewriteLegacyArgs(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("rewriteLegacyArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	// WHY: The keystore open and save failures print the message and the underlying cause on an indented second line.
	t.Parallel()

	cause := errors.New("keystore password was incorrect")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "invalid_password",
			err:  &internal.InvalidStorePasswordError{Path: "/c", Err: cause},
			want: "Cannot open Java keystore. Is the password correct? Message:\n  keystore password was incorrect\n",
		},
		{
			name: "save_failed",
			err:  &internal.UnableToSaveStoreError{Path: "/c", Err: cause},
			want: "There was a problem saving the new Java keystore. Message:\n  keystore password was incorrect\n",
		},
		{name: "other", err: errors.New("boom"), want: "Error: boom\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			printError(&buf, tt.err)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestEncodeExport_Formats(t *testing.T) {
	// WHY: Each export format must round-trip through its own decoder; an unknown format is an error.
	t.Parallel()

	cert := writeTestCert(t, filepath.Join(t.TempDir(), "a.crt"), "Export CA")
	entries := []cajava.TrustedCertificate{{Alias: "debian:a.crt", Cert: cert}}

	p12, err := encodeExport(entries, "p12", "changeit")
	if err != nil {
		t.Fatalf("p12: %v", err)
	}
	if certs, err := cajava.DecodePKCS12TrustStore(p12, "changeit"); err != nil || len(certs) != 1 {
		t.Errorf("p12 decode: %d certs, err %v", len(certs), err)
	}

	p7b, err := encodeExport(entries, "p7b", "")
	if err != nil {
		t.Fatalf("p7b: %v", err)
	}
	if certs, err := cajava.DecodePKCS7(p7b); err != nil || !certs[0].Equal(cert) {
		t.Errorf("p7b decode: err %v", err)
	}

	pemData, err := encodeExport(entries, "pem", "")
	if err != nil {
		t.Fatalf("pem: %v", err)
	}
	if got, err := cajava.DecodeCertificate(pemData); err != nil || !got.Equal(cert) {
		t.Errorf("pem decode: err %v", err)
	}

	if _, err := encodeExport(entries, "jks", ""); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := encodeExport(nil, "pem", ""); err == nil {
		t.Error("expected error for empty pem export")
	}
}

func TestWriteList_Text(t *testing.T) {
	// WHY: The text layout mirrors keytool -list so existing habits and scripts keep working.
	t.Parallel()

	entries := []listEntry{{Alias: "debian:a.crt", SHA1: "AA:BB", SHA256: "CC:DD", Subject: "CN=A", Name: "A"}}
	var buf bytes.Buffer
	if err := writeList(&buf, entries, "text"); err != nil {
		t.Fatal(err)
	}
	want := "Your keystore contains 1 entries\n\n" +
		"debian:a.crt, trustedCertEntry,\n" +
		"Certificate fingerprint (SHA1): AA:BB\n" +
		"Certificate fingerprint (SHA-256): CC:DD\n" +
		"Subject: CN=A\n" +
		"Name: A\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	if err := writeList(&buf, entries, "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestCommands_UpdateListExport(t *testing.T) {
	// WHY: End to end through cobra: directives on stdin create the keystore, then list and export read it back with the same flags.
	// Not parallel: the commands share package-level flag variables.
	dir := t.TempDir()
	keystore := filepath.Join(dir, "cacerts")
	certPath := filepath.Join(dir, "spi-cacert-2008.crt")
	cert := writeTestCert(t, certPath, "SPI CA")
	configFile := filepath.Join(dir, "cajava.yaml")
	if err := os.WriteFile(configFile, []byte("logLevel: error\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	report := filepath.Join(dir, "run.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader("+" + certPath + "\n-" + filepath.Join(dir, "none.crt") + "\n"))
	rootCmd.SetArgs(rewriteLegacyArgs([]string{"--config", configFile, "--keystore", keystore, "-storepass", "secret", "--report", report}))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := out.String(); got != "Adding debian:spi-cacert-2008.crt\n" {
		t.Errorf("update output = %q", got)
	}
	if _, err := os.Stat(report); err != nil {
		t.Errorf("report not written: %v", err)
	}

	out.Reset()
	rootCmd.SetArgs([]string{"list", "--config", configFile, "--keystore", keystore, "--storepass", "secret", "--format", "json"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	var entries []listEntry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out.String())
	}
	if len(entries) != 1 || entries[0].Alias != "debian:spi-cacert-2008.crt" || entries[0].SHA256 != cajava.CertFingerprintColonSHA256(cert) || entries[0].Name != "SPI CA" {
		t.Errorf("list entries = %+v", entries)
	}

	exported := filepath.Join(dir, "cacerts.p12")
	rootCmd.SetArgs([]string{"export", "--config", configFile, "--keystore", keystore, "--storepass", "secret", exported})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	certs, err := cajava.DecodePKCS12TrustStore(data, "secret")
	if err != nil || len(certs) != 1 || !certs[0].Equal(cert) {
		t.Errorf("exported trust store: %d certs, err %v", len(certs), err)
	}

	rootCmd.SetArgs([]string{"list", "--config", configFile, "--keystore", keystore, "--storepass", "wrong"})
	err = rootCmd.Execute()
	var pwErr *internal.InvalidStorePasswordError
	if !errors.As(err, &pwErr) {
		t.Errorf("list with wrong password: got %v, want InvalidStorePasswordError", err)
	}
}
