package main

import (
	"fmt"

	"github.com/sensiblebit/cajava/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath    string
	keystorePath  string
	storepass     string
	storepassFile string
	logLevel      string
	reportPath    string
)

// settings is the effective configuration after the config file and flags
// are merged.
type settings struct {
	Keystore string
	Password string
	Report   string
}

var rootCmd = &cobra.Command{
	Use:   "cajava",
	Short: "Keep a Java keystore in sync with system CA certificates",
	Long: `Read certificate change directives on stdin and apply them to a Java keystore.

Each line is "+<path>" to add or replace the certificate at <path>, or
"-<path>" to remove it. The alias of an entry is "debian:" followed by the
file name of <path>.`,
	Example: `  printf '+/usr/share/ca-certificates/mozilla/ISRG_Root_X1.crt\n' | cajava
  cajava list --format json
  cajava export cacerts.p12`,
	Args:              cobra.NoArgs,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE:              runUpdate,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", internal.DefaultConfigPath, "Path to config YAML")
	flags.StringVarP(&keystorePath, "keystore", "k", internal.DefaultKeystorePath, "Java keystore to update")
	flags.StringVar(&storepass, "storepass", "", "Keystore password (default: changeit)")
	flags.StringVar(&storepassFile, "storepass-file", "", "File whose first line is the keystore password")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "Write a SQLite report of the run to this path")

	registerCompletion(rootCmd, completionInput{"log-level", fixedCompletion("debug", "info", "warn", "error")})
	registerCompletion(rootCmd, completionInput{"keystore", fileCompletion})
	registerCompletion(rootCmd, completionInput{"config", fileCompletion})
	registerCompletion(rootCmd, completionInput{"storepass-file", fileCompletion})
	registerCompletion(rootCmd, completionInput{"report", fileCompletion})

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
}

// loadConfig reads the config file. The default path may be absent; a path
// given with --config must exist.
func loadConfig(cmd *cobra.Command) (internal.Config, error) {
	return internal.LoadConfig(configPath, cmd.Flags().Changed("config"))
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	internal.SetupLogger(changedOr(cmd.Flags(), "log-level", cfg.LogLevel))
	return nil
}

// changedOr returns the value of the named flag if it was set on the
// command line, and fallback otherwise.
func changedOr(flags *pflag.FlagSet, name, fallback string) string {
	if !flags.Changed(name) {
		return fallback
	}
	v, err := flags.GetString(name)
	if err != nil {
		return fallback
	}
	return v
}

// resolveSettings merges the config file with flags. Flags win only when
// set on the command line.
func resolveSettings(cmd *cobra.Command) (settings, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return settings{}, err
	}
	flags := cmd.Flags()

	s := settings{
		Keystore: changedOr(flags, "keystore", cfg.Keystore),
		Report:   changedOr(flags, "report", cfg.Report),
	}
	if s.Keystore == "" {
		s.Keystore = internal.DefaultKeystorePath
	}

	explicit := changedOr(flags, "storepass", "")
	file := changedOr(flags, "storepass-file", cfg.StorepassFile)
	s.Password, err = internal.ResolveStorePassword(explicit, file, cfg.Storepass)
	if err != nil {
		return settings{}, fmt.Errorf("resolving keystore password: %w", err)
	}
	return s, nil
}
