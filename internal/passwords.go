package internal

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LoadPasswordFromFile returns the first non-blank line of filename, trimmed.
func LoadPasswordFromFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			return pwd, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("password file is empty")
}

// ResolveStorePassword picks the keystore password: an explicit password
// wins over a password file, then fallback, then DefaultStorePassword.
func ResolveStorePassword(explicit, passwordFile, fallback string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if passwordFile != "" {
		pwd, err := LoadPasswordFromFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("loading password from file: %w", err)
		}
		return pwd, nil
	}
	if fallback == "" {
		slog.Debug("using default keystore password")
		return DefaultStorePassword, nil
	}
	return fallback, nil
}
