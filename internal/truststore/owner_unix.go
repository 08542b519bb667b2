//go:build unix

package truststore

import (
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// copyOwner gives f the owner and group of the file at path. Without
// privileges the chown is skipped and f keeps the caller's ownership.
func copyOwner(f *os.File, path string) error {
	var prev unix.Stat_t
	if err := unix.Stat(path, &prev); err != nil {
		return err
	}
	var cur unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &cur); err != nil {
		return err
	}
	if cur.Uid == prev.Uid && cur.Gid == prev.Gid {
		return nil
	}
	if err := unix.Fchown(int(f.Fd()), int(prev.Uid), int(prev.Gid)); err != nil {
		if errors.Is(err, unix.EPERM) {
			slog.Debug("cannot preserve keystore owner", "path", path, "uid", prev.Uid, "gid", prev.Gid)
			return nil
		}
		return err
	}
	return nil
}
