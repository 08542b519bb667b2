package internal

import "errors"

// ErrSessionFinished is returned when a session is used after Finish.
var ErrSessionFinished = errors.New("session already finished")

// InvalidStorePasswordError means the trust store file exists but could not
// be unlocked. No directives are processed after it.
type InvalidStorePasswordError struct {
	Path string
	Err  error
}

// Error returns the fixed diagnostic printed by every Debian release of the
// updater; packaging scripts grep for it.
func (e *InvalidStorePasswordError) Error() string {
	return "Cannot open Java keystore. Is the password correct?"
}

func (e *InvalidStorePasswordError) Unwrap() error { return e.Err }

// UnableToSaveStoreError means the final save failed. Every change made
// during the session is lost.
type UnableToSaveStoreError struct {
	Path string
	Err  error
}

func (e *UnableToSaveStoreError) Error() string {
	return "There was a problem saving the new Java keystore."
}

func (e *UnableToSaveStoreError) Unwrap() error { return e.Err }

// CertificateDecodeError reports a certificate file that could not be read
// or decoded. The directive is skipped.
type CertificateDecodeError struct {
	Path string
	Err  error
}

func (e *CertificateDecodeError) Error() string {
	return "there was a problem reading the certificate file " + e.Path + ": " + e.Err.Error()
}

func (e *CertificateDecodeError) Unwrap() error { return e.Err }

// UnknownDirectiveError carries an input line that is neither an add nor a
// remove. Error returns the line verbatim.
type UnknownDirectiveError struct {
	Line string
}

func (e *UnknownDirectiveError) Error() string { return e.Line }

// StoreUpdateError means a decoded certificate could not be written to the
// trust store. The directive is skipped and the previous entry, if any, is
// kept.
type StoreUpdateError struct {
	Alias string
	Err   error
}

func (e *StoreUpdateError) Error() string {
	return "could not store certificate " + e.Alias + ": " + e.Err.Error()
}

func (e *StoreUpdateError) Unwrap() error { return e.Err }
