package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sensiblebit/cajava/internal"
	"github.com/spf13/cobra"
)

func runUpdate(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		slog.Warn("Reading directives from a terminal, end input with Ctrl-D")
	}

	var report *internal.Report
	if s.Report != "" {
		report, err = internal.NewReport()
		if err != nil {
			return fmt.Errorf("failed to initialize report: %w", err)
		}
		defer report.Close()
	}

	session, err := internal.OpenSession(internal.OpenSessionInput{
		Path:     s.Keystore,
		Password: s.Password,
		Out:      cmd.OutOrStdout(),
		Report:   report,
	})
	if err != nil {
		return err
	}

	if err := session.ProcessChanges(cmd.InOrStdin()); err != nil {
		return err
	}
	finishErr := session.Finish()

	if report != nil {
		if err := saveReport(report, s.Report); err != nil {
			slog.Warn("Failed to save report", "path", s.Report, "error", err)
		}
	}
	return finishErr
}

// saveReport writes report to path, replacing any previous report there.
func saveReport(report *internal.Report, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing old report: %w", err)
	}
	return report.SaveToDisk(path)
}
