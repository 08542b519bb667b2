package main

import (
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sensiblebit/cajava"
	"github.com/spf13/cobra"
)

var (
	exportFormat   string
	exportPassword string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the keystore certificates to another format",
	Long: `Write the trusted certificates of the keystore to <file>.

p12 writes a certificates-only PKCS#12 trust store that Java 9+ can use in
place of the JKS file, keeping the aliases. p7b and pem write the bare
certificates in alias order.`,
	Example: `  cajava export cacerts.p12
  cajava export --format pem ca-bundle.pem`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "p12", "Output format: p12, p7b, or pem")
	exportCmd.Flags().StringVar(&exportPassword, "export-password", "", "PKCS#12 password (default: the keystore password)")
	registerCompletion(exportCmd, completionInput{"format", fixedCompletion("p12", "p7b", "pem")})
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	store, err := openExistingStore(s)
	if err != nil {
		return err
	}

	var entries []cajava.TrustedCertificate
	for _, alias := range store.Aliases() {
		cert, err := store.Certificate(alias)
		if err != nil {
			slog.Warn("Skipping keystore entry", "alias", alias, "error", err)
			continue
		}
		entries = append(entries, cajava.TrustedCertificate{Alias: alias, Cert: cert})
	}

	password := exportPassword
	if password == "" {
		password = s.Password
	}
	data, err := encodeExport(entries, exportFormat, password)
	if err != nil {
		return err
	}

	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}
	slog.Info("Exported keystore", "path", args[0], "format", exportFormat, "certificates", len(entries))
	return nil
}

func encodeExport(entries []cajava.TrustedCertificate, format, password string) ([]byte, error) {
	switch format {
	case "p12":
		return cajava.EncodePKCS12TrustStore(entries, password)
	case "p7b":
		certs := make([]*x509.Certificate, 0, len(entries))
		for _, e := range entries {
			certs = append(certs, e.Cert)
		}
		return cajava.EncodePKCS7(certs)
	case "pem":
		if len(entries) == 0 {
			return nil, errors.New("no certificates to encode")
		}
		var b strings.Builder
		for _, e := range entries {
			b.WriteString(cajava.CertToPEM(e.Cert))
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use p12, p7b, or pem)", format)
	}
}
