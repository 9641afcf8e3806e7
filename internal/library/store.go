// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists saved papers in a SQLite database with a
// full-text index over titles, authors, and abstracts.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/datahackshaw/sourcesearch/pkg/types"
)

const dbFile = "library.db"

// minKeyLen rejects records whose identity key is too short to
// distinguish anything.
const minKeyLen = 4

// ErrNotFound indicates the requested key is not in the library.
var ErrNotFound = errors.New("paper not found")

// Entry is a stored paper together with its library bookkeeping fields.
type Entry struct {
	// Key is the identity key the paper is stored under: its lowercased
	// DOI, or lowercased title when no DOI is known.
	Key string `json:"key" yaml:"key"`

	types.PaperRecord `yaml:",inline"`

	// AddedAt records when the paper first entered the library.
	AddedAt time.Time `json:"added_at" yaml:"added_at"`
}

// Store manages the library SQLite database.
type Store struct {
	db         *sql.DB
	libraryDir string
	maxResults int
}

// NewStore opens or creates the library database at
// cfg.LibraryDir/library.db, creating the schema if it does not exist.
func NewStore(cfg types.LibraryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.LibraryDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	dbPath := filepath.Join(cfg.LibraryDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		libraryDir: cfg.LibraryDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			key TEXT PRIMARY KEY,
			title TEXT,
			authors TEXT,
			source TEXT,
			doi TEXT,
			url TEXT,
			abstract TEXT,
			year TEXT,
			journal TEXT,
			citations INTEGER,
			added_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, authors, abstract, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, authors, abstract) VALUES (new.rowid, new.title, new.authors, new.abstract);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, authors, abstract) VALUES('delete', old.rowid, old.title, old.authors, old.abstract);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, authors, abstract) VALUES('delete', old.rowid, old.title, old.authors, old.abstract);
				INSERT INTO papers_fts(rowid, title, authors, abstract) VALUES (new.rowid, new.title, new.authors, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save upserts a record under its identity key and returns the key.
// Saving an already stored paper refreshes its fields but keeps the
// original added_at timestamp.
func (s *Store) Save(ctx context.Context, rec types.PaperRecord) (string, error) {
	key := strings.TrimSpace(rec.IdentityKey())
	if len(key) < minKeyLen {
		return "", fmt.Errorf("record %q has no usable identity key", rec.Title)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (key, title, authors, source, doi, url, abstract, year, journal, citations, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, source=excluded.source,
			doi=excluded.doi, url=excluded.url, abstract=excluded.abstract,
			year=excluded.year, journal=excluded.journal, citations=excluded.citations`,
		key, rec.Title, rec.Authors, string(rec.Source), rec.DOI, rec.URL,
		rec.Abstract, rec.Year, rec.Journal, rec.Citations,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("saving paper: %w", err)
	}
	return key, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc rowScanner) (Entry, error) {
	var e Entry
	var src, added string
	if err := sc.Scan(
		&e.Key, &e.Title, &e.Authors, &src, &e.DOI, &e.URL,
		&e.Abstract, &e.Year, &e.Journal, &e.Citations, &added,
	); err != nil {
		return Entry{}, err
	}
	e.Source = types.Source(src)
	if t, err := time.Parse(time.RFC3339, added); err == nil {
		e.AddedAt = t
	}
	return e, nil
}

// Get returns the stored paper for a key. The key is matched after the
// same normalization Save applies, so mixed-case DOIs resolve.
func (s *Store) Get(ctx context.Context, key string) (Entry, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	row := s.db.QueryRowContext(ctx,
		`SELECT key, title, authors, source, doi, url, abstract, year, journal, citations, added_at
		 FROM papers WHERE key = ?`, key)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("paper %q: %w", key, ErrNotFound)
		}
		return Entry{}, fmt.Errorf("loading paper: %w", err)
	}
	return e, nil
}

// List returns every stored paper, most recently added first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, title, authors, source, doi, url, abstract, year, journal, citations, added_at
		 FROM papers ORDER BY added_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// Find runs a full-text query over titles, authors, and abstracts,
// ranked by relevance. An empty query lists the most recent papers
// instead. maxResults zero uses the store default.
func (s *Store) Find(ctx context.Context, query string, maxResults int) ([]Entry, error) {
	if maxResults <= 0 {
		maxResults = s.maxResults
	}
	query = strings.TrimSpace(query)

	var (
		rows *sql.Rows
		err  error
	)
	if query == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT key, title, authors, source, doi, url, abstract, year, journal, citations, added_at
			 FROM papers ORDER BY added_at DESC, key LIMIT ?`, maxResults)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT p.key, p.title, p.authors, p.source, p.doi, p.url, p.abstract, p.year, p.journal, p.citations, p.added_at
			 FROM papers_fts
			 JOIN papers p ON p.rowid = papers_fts.rowid
			 WHERE papers_fts MATCH ?
			 ORDER BY papers_fts.rank
			 LIMIT ?`, query, maxResults)
	}
	if err != nil {
		return nil, fmt.Errorf("querying library: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove deletes a stored paper by key.
func (s *Store) Remove(ctx context.Context, key string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("removing paper: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing paper: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("paper %q: %w", key, ErrNotFound)
	}
	return nil
}

// Count returns the number of stored papers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}
