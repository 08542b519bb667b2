package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sensiblebit/cajava"
	"github.com/sensiblebit/cajava/internal/truststore"
)

// OpenSessionInput holds parameters for OpenSession.
type OpenSessionInput struct {
	Path     string             // keystore file
	Password string             // keystore password
	Decoder  CertificateDecoder // nil uses cajava.DecodeCertificate
	Out      io.Writer          // progress lines; nil discards them
	Report   *Report            // optional run report
}

// Summary counts the actions of a session by kind.
type Summary struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
	Removed  int `json:"removed"`
	NoOp     int `json:"noop"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
}

// Session binds one opened trust store to the directive stream applied to it.
// It is not safe for concurrent use.
type Session struct {
	path     string
	password []byte
	store    *truststore.JKS
	engine   *Reconciler
	out      io.Writer
	report   *Report

	applied  []Action
	summary  Summary
	finished bool
}

// OpenSession loads the keystore at input.Path, creating an empty one in
// memory when the file does not exist.
func OpenSession(input OpenSessionInput) (*Session, error) {
	password := []byte(input.Password)
	store, err := truststore.Load(input.Path, password)
	if err != nil {
		if errors.Is(err, truststore.ErrUnlock) {
			return nil, &InvalidStorePasswordError{Path: input.Path, Err: err}
		}
		return nil, fmt.Errorf("opening keystore: %w", err)
	}

	decoder := input.Decoder
	if decoder == nil {
		decoder = DecoderFunc(cajava.DecodeCertificate)
	}
	out := input.Out
	if out == nil {
		out = io.Discard
	}

	return &Session{
		path:     input.Path,
		password: password,
		store:    store,
		engine:   &Reconciler{Store: store, Decoder: decoder},
		out:      out,
		report:   input.Report,
	}, nil
}

// ProcessLine parses and applies one input line. Failures are reported
// through the returned actions and the log; they never end the session.
func (s *Session) ProcessLine(line string) []Action {
	if s.finished {
		a := Action{Kind: ActionSkipped, Line: line, Err: ErrSessionFinished}
		slog.Warn("ignoring input after keystore was saved", "line", line)
		return []Action{a}
	}

	actions := s.engine.Apply(ParseDirective(line))
	for _, a := range actions {
		s.record(a)
	}
	return actions
}

// ProcessChanges applies every line read from r in order. Lines have no
// length limit. Only a failure to read r is returned.
func (s *Session) ProcessChanges(r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			s.ProcessLine(line)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading directives: %w", err)
		}
	}
}

func (s *Session) record(a Action) {
	s.applied = append(s.applied, a)

	switch a.Kind {
	case ActionAdded:
		s.summary.Added++
		fmt.Fprintln(s.out, a)
	case ActionReplaced:
		s.summary.Replaced++
		fmt.Fprintln(s.out, a)
	case ActionRemoved:
		s.summary.Removed++
		fmt.Fprintln(s.out, a)
	case ActionNoOp:
		s.summary.NoOp++
		slog.Debug("nothing to remove", "path", a.Path, "alias", Alias(a.Path))
	case ActionSkipped:
		s.summary.Skipped++
		var decodeErr *CertificateDecodeError
		if errors.As(a.Err, &decodeErr) {
			slog.Warn("there was a problem reading the certificate file", "path", decodeErr.Path, "error", decodeErr.Err)
		} else {
			slog.Warn("skipping directive", "line", a.Line, "error", a.Err)
		}
	case ActionRejected:
		s.summary.Rejected++
		slog.Warn("unknown input", "line", a.Line)
	}

	if s.report != nil {
		if err := s.report.RecordAction(a); err != nil {
			slog.Warn("recording action in report", "error", err)
		}
	}
}

// Finish saves the keystore. It may be called once; if saving fails every
// change made during the session is lost.
func (s *Session) Finish() error {
	if s.finished {
		return ErrSessionFinished
	}
	s.finished = true

	if err := s.store.Save(s.path, s.password); err != nil {
		return &UnableToSaveStoreError{Path: s.path, Err: err}
	}

	if s.report != nil {
		if err := s.report.RecordInventory(s.store); err != nil {
			slog.Warn("recording keystore inventory in report", "error", err)
		}
	}

	slog.Info("keystore updated",
		"path", s.path,
		"entries", s.store.Len(),
		"added", s.summary.Added,
		"replaced", s.summary.Replaced,
		"removed", s.summary.Removed,
		"skipped", s.summary.Skipped,
		"rejected", s.summary.Rejected)
	return nil
}

// Contains reports whether alias is present in the session's store. It is
// valid before and after Finish.
func (s *Session) Contains(alias string) bool {
	return s.store.Contains(alias)
}

// Applied returns the actions performed so far, in input order.
func (s *Session) Applied() []Action {
	return append([]Action(nil), s.applied...)
}

// Summary returns action counts for the session so far.
func (s *Session) Summary() Summary {
	return s.summary
}
