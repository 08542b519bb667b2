// Package truststore reads and writes Java KeyStore (JKS) trust stores
// holding trusted certificate entries.
package truststore

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/sensiblebit/cajava"
)

// ErrUnlock is wrapped by Load when the store file exists but cannot be
// decoded with the given password. A corrupt file and a wrong password are
// indistinguishable in the JKS format, both fail the integrity digest.
var ErrUnlock = errors.New("keystore could not be unlocked")

// newFileMode is used when the store file does not exist yet.
const newFileMode fs.FileMode = 0o644

// JKS is an in-memory Java KeyStore. Changes are only written by Save.
type JKS struct {
	ks keystore.KeyStore
}

// New returns an empty store.
func New() *JKS {
	return &JKS{ks: keystore.New(keystore.WithOrderedAliases())}
}

// Load reads the store at path. A missing file yields an empty store so the
// first Save creates it.
func Load(path string, password []byte) (*JKS, error) {
	s := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("keystore does not exist, starting empty", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("reading keystore %s: %w", path, err)
	}

	if err := s.ks.Load(bytes.NewReader(data), password); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnlock, path, err)
	}
	slog.Debug("keystore loaded", "path", path, "entries", s.Len())
	return s, nil
}

// Contains reports whether any entry exists under alias.
func (s *JKS) Contains(alias string) bool {
	return s.ks.IsTrustedCertificateEntry(alias) || s.ks.IsPrivateKeyEntry(alias)
}

// SetCertificate stores cert as a trusted certificate entry under alias,
// overwriting any entry with the same alias.
func (s *JKS) SetCertificate(alias string, cert *x509.Certificate) error {
	if cert == nil {
		return errors.New("certificate is nil")
	}
	err := s.ks.SetTrustedCertificateEntry(alias, keystore.TrustedCertificateEntry{
		CreationTime: time.Now(),
		Certificate: keystore.Certificate{
			Type:    "X.509",
			Content: cert.Raw,
		},
	})
	if err != nil {
		return fmt.Errorf("setting trusted certificate %s: %w", alias, err)
	}
	return nil
}

// Delete removes alias. Deleting a missing alias is a no-op.
func (s *JKS) Delete(alias string) {
	s.ks.DeleteEntry(alias)
}

// Aliases returns all aliases in sorted order.
func (s *JKS) Aliases() []string {
	return s.ks.Aliases()
}

// Len returns the number of entries.
func (s *JKS) Len() int {
	return len(s.ks.Aliases())
}

// Certificate returns the trusted certificate stored under alias.
func (s *JKS) Certificate(alias string) (*x509.Certificate, error) {
	entry, err := s.ks.GetTrustedCertificateEntry(alias)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", alias, err)
	}
	cert, err := cajava.DecodeCertificate(entry.Certificate.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", alias, err)
	}
	return cert, nil
}

// Encode writes the JKS encoding of the store to w.
func (s *JKS) Encode(w io.Writer, password []byte) error {
	if err := s.ks.Store(w, password); err != nil {
		return fmt.Errorf("encoding keystore: %w", err)
	}
	return nil
}

// Save replaces the file at path with the store contents. The data is
// written to a temporary file in the same directory and renamed over path,
// so a failed save leaves the previous file untouched. The mode and, where
// supported, the owner of an existing file are carried over.
func (s *JKS) Save(path string, password []byte) (err error) {
	var buf bytes.Buffer
	if err := s.Encode(&buf, password); err != nil {
		return err
	}

	mode := newFileMode
	prev, statErr := os.Stat(path)
	switch {
	case statErr == nil && prev.IsDir():
		return fmt.Errorf("saving keystore: %s is a directory", path)
	case statErr == nil:
		mode = prev.Mode().Perm()
	case !errors.Is(statErr, fs.ErrNotExist):
		return fmt.Errorf("saving keystore: %w", statErr)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary keystore: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing keystore: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("setting keystore mode: %w", err)
	}
	if prev != nil {
		if err = copyOwner(tmp, path); err != nil {
			return fmt.Errorf("setting keystore owner: %w", err)
		}
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing keystore: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing keystore: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing keystore: %w", err)
	}

	slog.Debug("keystore saved", "path", path, "entries", s.Len())
	return nil
}
