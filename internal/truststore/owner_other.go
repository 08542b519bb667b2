//go:build !unix

package truststore

import "os"

func copyOwner(_ *os.File, _ string) error { return nil }
