package internal

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TrustStore is the keyed certificate collection a Reconciler mutates.
// SetCertificate replaces an existing entry and leaves it in place on error.
type TrustStore interface {
	Contains(alias string) bool
	SetCertificate(alias string, cert *x509.Certificate) error
	Delete(alias string)
}

// CertificateDecoder turns the bytes of a certificate file into a certificate.
type CertificateDecoder interface {
	DecodeCertificate(data []byte) (*x509.Certificate, error)
}

// DecoderFunc adapts a function to CertificateDecoder.
type DecoderFunc func(data []byte) (*x509.Certificate, error)

func (f DecoderFunc) DecodeCertificate(data []byte) (*x509.Certificate, error) {
	return f(data)
}

// ActionKind describes the effect one directive had on the store.
type ActionKind int

const (
	ActionNoOp ActionKind = iota
	ActionAdded
	ActionReplaced
	ActionRemoved
	ActionSkipped
	ActionRejected
)

func (k ActionKind) String() string {
	switch k {
	case ActionAdded:
		return "added"
	case ActionReplaced:
		return "replaced"
	case ActionRemoved:
		return "removed"
	case ActionSkipped:
		return "skipped"
	case ActionRejected:
		return "rejected"
	default:
		return "noop"
	}
}

// Action is one entry of the action log produced by Apply.
type Action struct {
	Kind  ActionKind
	Alias string // set for added, replaced, and removed
	Path  string // certificate path from the directive
	Line  string // raw input line
	Err   error  // set for skipped and rejected
}

// String renders the action as a progress line.
func (a Action) String() string {
	switch a.Kind {
	case ActionAdded:
		return "Adding " + a.Alias
	case ActionReplaced:
		return "Replacing " + a.Alias
	case ActionRemoved:
		return "Removing " + a.Alias
	case ActionSkipped:
		return fmt.Sprintf("Skipping %s: %v", a.Path, a.Err)
	case ActionRejected:
		return "Unknown input: " + a.Line
	default:
		return "Nothing to remove for " + a.Path
	}
}

// Reconciler applies directives to a trust store. It holds no state of its
// own; everything lives in Store.
type Reconciler struct {
	Store   TrustStore
	Decoder CertificateDecoder
}

// Apply performs one directive and reports what happened. Per-directive
// problems are returned as skipped or rejected actions, never as errors.
func (r *Reconciler) Apply(d Directive) []Action {
	switch d.Kind {
	case DirectiveAdd:
		return []Action{r.add(d)}
	case DirectiveRemove:
		return r.remove(d)
	default:
		return []Action{{
			Kind: ActionRejected,
			Line: d.Line,
			Err:  &UnknownDirectiveError{Line: d.Line},
		}}
	}
}

func (r *Reconciler) add(d Directive) Action {
	alias := Alias(d.Path)
	skipped := func(err error) Action {
		return Action{Kind: ActionSkipped, Alias: alias, Path: d.Path, Line: d.Line, Err: err}
	}

	cert, err := r.decodeFile(d.Path)
	if err != nil {
		return skipped(&CertificateDecodeError{Path: d.Path, Err: err})
	}
	if cert == nil || len(cert.Raw) == 0 {
		return skipped(&CertificateDecodeError{Path: d.Path, Err: errors.New("decoder returned no certificate content")})
	}

	// SetCertificate overwrites in place, so a failed insert keeps the old entry.
	kind := ActionAdded
	if r.Store.Contains(alias) {
		kind = ActionReplaced
	}
	if err := r.Store.SetCertificate(alias, cert); err != nil {
		return skipped(&StoreUpdateError{Alias: alias, Err: err})
	}
	return Action{Kind: kind, Alias: alias, Path: d.Path, Line: d.Line}
}

func (r *Reconciler) decodeFile(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Decoder.DecodeCertificate(data)
}

// remove deletes the prefixed alias and then the legacy unprefixed one.
func (r *Reconciler) remove(d Directive) []Action {
	var actions []Action
	for _, alias := range []string{Alias(d.Path), LegacyAlias(d.Path)} {
		if !r.Store.Contains(alias) {
			continue
		}
		r.Store.Delete(alias)
		actions = append(actions, Action{Kind: ActionRemoved, Alias: alias, Path: d.Path, Line: d.Line})
	}
	if len(actions) == 0 {
		actions = append(actions, Action{Kind: ActionNoOp, Path: d.Path, Line: d.Line})
	}
	return actions
}
