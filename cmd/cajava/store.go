package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sensiblebit/cajava/internal"
	"github.com/sensiblebit/cajava/internal/truststore"
)

// openExistingStore loads the keystore for read-only commands. Unlike an
// update, a missing file is an error here.
func openExistingStore(s settings) (*truststore.JKS, error) {
	if _, err := os.Stat(s.Keystore); err != nil {
		return nil, fmt.Errorf("keystore %s: %w", s.Keystore, err)
	}
	store, err := truststore.Load(s.Keystore, []byte(s.Password))
	if err != nil {
		if errors.Is(err, truststore.ErrUnlock) {
			return nil, &internal.InvalidStorePasswordError{Path: s.Keystore, Err: err}
		}
		return nil, err
	}
	return store, nil
}
