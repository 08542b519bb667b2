package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultKeystorePath is the system-wide JVM trust store on Debian.
const DefaultKeystorePath = "/etc/ssl/certs/java/cacerts"

// DefaultStorePassword is the password every JDK ships cacerts with.
const DefaultStorePassword = "changeit"

// DefaultConfigPath is read when no --config flag is given.
const DefaultConfigPath = "/etc/default/cajava.yaml"

// Config holds the runtime settings that can come from the YAML file.
type Config struct {
	Keystore      string `yaml:"keystore"`
	Storepass     string `yaml:"storepass"`
	StorepassFile string `yaml:"storepassFile"`
	LogLevel      string `yaml:"logLevel"`
	Report        string `yaml:"report"`
}

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		Keystore:  DefaultKeystorePath,
		Storepass: DefaultStorePassword,
		LogLevel:  "info",
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig. A missing
// file is an error only when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
