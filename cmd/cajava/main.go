package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sensiblebit/cajava/internal"
)

var version = "dev"

func main() {
	rootCmd.Version = version
	rootCmd.SetArgs(rewriteLegacyArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// rewriteLegacyArgs accepts the keytool-style single-dash -storepass flag
// that package maintainer scripts have always passed.
func rewriteLegacyArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if arg == "--" {
			copy(out[i:], args[i:])
			break
		}
		if arg == "-storepass" || strings.HasPrefix(arg, "-storepass=") {
			arg = "-" + arg
		}
		out[i] = arg
	}
	return out
}

// printError writes err to w. Keystore open and save failures keep the
// two-line "Message:" layout scripts grep for.
func printError(w io.Writer, err error) {
	var pwErr *internal.InvalidStorePasswordError
	var saveErr *internal.UnableToSaveStoreError
	switch {
	case errors.As(err, &pwErr):
		fmt.Fprintf(w, "%s Message:\n  %v\n", pwErr.Error(), pwErr.Err)
	case errors.As(err, &saveErr):
		fmt.Fprintf(w, "%s Message:\n  %v\n", saveErr.Error(), saveErr.Err)
	default:
		fmt.Fprintf(w, "Error: %s\n", err)
	}
}
