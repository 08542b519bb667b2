package internal

import (
	"crypto/x509"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sensiblebit/cajava"
	_ "modernc.org/sqlite"
)

// Report is an in-memory SQLite record of one run: every action in input
// order and the keystore contents after the save. It is written out with
// SaveToDisk and plays no part in recovering a failed run.
type Report struct {
	*sqlx.DB
	seq int
}

// ActionRecord is one row of the actions table.
type ActionRecord struct {
	Seq    int            `db:"seq"`
	Kind   string         `db:"kind"`
	Alias  sql.NullString `db:"alias"`
	Path   sql.NullString `db:"path"`
	Line   string         `db:"line"`
	Detail sql.NullString `db:"detail"`
}

// EntryRecord is one row of the entries table.
type EntryRecord struct {
	Alias       string     `db:"alias"`
	Fingerprint string     `db:"sha256"`
	Subject     string     `db:"subject"`
	CertType    string     `db:"cert_type"`
	NotAfter    *time.Time `db:"not_after"`
}

// InventorySource lists the entries of a trust store.
type InventorySource interface {
	Aliases() []string
	Certificate(alias string) (*x509.Certificate, error)
}

// NewReport creates an empty in-memory report.
func NewReport() (*Report, error) {
	// Each :memory: connection is a separate database, so the pool is
	// pinned to one connection.
	dsn := "file::memory:?_pragma=temp_store(2)&_pragma=journal_mode(off)&_pragma=synchronous(off)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening report database: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &Report{DB: db}
	if err := r.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing report schema: %w", err)
	}
	return r, nil
}

func (r *Report) initSchema() error {
	_, err := r.Exec(`
		CREATE TABLE IF NOT EXISTS actions (
			seq    INTEGER PRIMARY KEY,
			kind   TEXT NOT NULL,
			alias  TEXT,
			path   TEXT,
			line   TEXT NOT NULL,
			detail TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("creating actions table: %w", err)
	}

	_, err = r.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			alias     TEXT PRIMARY KEY,
			sha256    TEXT NOT NULL,
			subject   TEXT NOT NULL,
			cert_type TEXT NOT NULL,
			not_after timestamp
		);
	`)
	if err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// RecordAction appends a to the actions table.
func (r *Report) RecordAction(a Action) error {
	r.seq++
	rec := ActionRecord{
		Seq:   r.seq,
		Kind:  a.Kind.String(),
		Alias: nullString(a.Alias),
		Path:  nullString(a.Path),
		Line:  a.Line,
	}
	if a.Err != nil {
		rec.Detail = nullString(a.Err.Error())
	}
	_, err := r.NamedExec(`
		INSERT INTO actions (seq, kind, alias, path, line, detail)
		VALUES (:seq, :kind, :alias, :path, :line, :detail)
	`, rec)
	if err != nil {
		return fmt.Errorf("inserting action: %w", err)
	}
	return nil
}

// RecordInventory replaces the entries table with the contents of src.
// Entries that cannot be parsed are logged and left out.
func (r *Report) RecordInventory(src InventorySource) error {
	tx, err := r.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}

	for _, alias := range src.Aliases() {
		cert, err := src.Certificate(alias)
		if err != nil {
			slog.Debug("leaving entry out of report", "alias", alias, "error", err)
			continue
		}
		notAfter := cert.NotAfter
		rec := EntryRecord{
			Alias:       alias,
			Fingerprint: cajava.CertFingerprint(cert),
			Subject:     cert.Subject.String(),
			CertType:    cajava.GetCertificateType(cert),
			NotAfter:    &notAfter,
		}
		_, err = tx.NamedExec(`
			INSERT INTO entries (alias, sha256, subject, cert_type, not_after)
			VALUES (:alias, :sha256, :subject, :cert_type, :not_after)
		`, rec)
		if err != nil {
			return fmt.Errorf("inserting entry %s: %w", alias, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing inventory: %w", err)
	}
	return nil
}

// Actions returns all recorded actions in input order.
func (r *Report) Actions() ([]ActionRecord, error) {
	var actions []ActionRecord
	if err := r.Select(&actions, "SELECT * FROM actions ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("getting actions: %w", err)
	}
	return actions, nil
}

// Entries returns the recorded inventory ordered by alias.
func (r *Report) Entries() ([]EntryRecord, error) {
	var entries []EntryRecord
	if err := r.Select(&entries, "SELECT * FROM entries ORDER BY alias"); err != nil {
		return nil, fmt.Errorf("getting entries: %w", err)
	}
	return entries, nil
}

// Counts returns the number of recorded actions per kind.
func (r *Report) Counts() (map[string]int, error) {
	rows, err := r.Queryx("SELECT kind, COUNT(*) FROM actions GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("counting actions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}
	return counts, nil
}

// SaveToDisk writes the report to a SQLite file at path. Uses VACUUM INTO,
// which fails if path already exists.
func (r *Report) SaveToDisk(path string) error {
	if _, err := r.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("saving report to %s: %w", path, err)
	}
	slog.Info("report saved", "path", path)
	return nil
}
