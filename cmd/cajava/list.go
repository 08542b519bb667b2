package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sensiblebit/cajava"
	"github.com/sensiblebit/cajava/internal/truststore"
	"github.com/spf13/cobra"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the certificates in the keystore",
	Long:  "Print every trusted certificate in the keystore with its SHA-1 and SHA-256 fingerprints, in the same format as keytool -list.",
	Example: `  cajava list
  cajava list --keystore ./cacerts --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "text", "Output format: text or json")
	registerCompletion(listCmd, completionInput{"format", fixedCompletion("text", "json")})
}

// listEntry is one keystore entry as printed by list.
type listEntry struct {
	Alias    string    `json:"alias"`
	SHA1     string    `json:"sha1"`
	SHA256   string    `json:"sha256"`
	Subject  string    `json:"subject"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	NotAfter time.Time `json:"not_after"`
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	store, err := openExistingStore(s)
	if err != nil {
		return err
	}
	return writeList(cmd.OutOrStdout(), listEntries(store), listFormat)
}

func listEntries(store *truststore.JKS) []listEntry {
	var entries []listEntry
	for _, alias := range store.Aliases() {
		cert, err := store.Certificate(alias)
		if err != nil {
			slog.Warn("Skipping keystore entry", "alias", alias, "error", err)
			continue
		}
		entries = append(entries, listEntry{
			Alias:    alias,
			SHA1:     cajava.CertFingerprintColonSHA1(cert),
			SHA256:   cajava.CertFingerprintColonSHA256(cert),
			Subject:  cert.Subject.String(),
			Name:     cajava.FormatCN(cert),
			Type:     cajava.GetCertificateType(cert),
			NotAfter: cert.NotAfter,
		})
	}
	return entries
}

func writeList(w io.Writer, entries []listEntry, format string) error {
	switch format {
	case "json":
		if entries == nil {
			entries = []listEntry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "text":
		fmt.Fprintf(w, "Your keystore contains %d entries\n", len(entries))
		for _, e := range entries {
			fmt.Fprintf(w, "\n%s, trustedCertEntry,\n", e.Alias)
			fmt.Fprintf(w, "Certificate fingerprint (SHA1): %s\n", e.SHA1)
			fmt.Fprintf(w, "Certificate fingerprint (SHA-256): %s\n", e.SHA256)
			fmt.Fprintf(w, "Subject: %s\n", e.Subject)
			fmt.Fprintf(w, "Name: %s\n", e.Name)
		}
	default:
		return fmt.Errorf("unsupported output format %q (use text or json)", format)
	}
	return nil
}
