package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteStore implements Store, FeedbackStore, and LocaleStore on a single
// SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var (
	_ Store         = (*SQLiteStore)(nil)
	_ FeedbackStore = (*SQLiteStore)(nil)
	_ LocaleStore   = (*SQLiteStore)(nil)
)

// OpenSQLite opens (creating if needed) the catalog database.
// Use ":memory:" for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	// Single writer to prevent lock contention; the pipeline only reads.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA for modernc.org/sqlite (DSN params are ignored).
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates tables if absent. The importer owns the real schema;
// this keeps fresh databases and tests usable.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tcodes (
		code        TEXT PRIMARY KEY COLLATE NOCASE,
		description TEXT NOT NULL DEFAULT '',
		module      TEXT NOT NULL DEFAULT '',
		deprecated  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		code      TEXT NOT NULL COLLATE NOCASE,
		vote      INTEGER NOT NULL CHECK (vote IN (-1, 1)),
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_code ON feedback(code);

	CREATE TABLE IF NOT EXISTS countries (
		code     TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		iso_code TEXT NOT NULL,
		aliases  TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// FindExact returns the non-deprecated entry whose code equals the query.
func (s *SQLiteStore) FindExact(ctx context.Context, code string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT code, description, module, deprecated
		 FROM tcodes WHERE code = ? COLLATE NOCASE AND deprecated = 0`,
		strings.TrimSpace(code))

	var e Entry
	var deprecated int
	if err := row.Scan(&e.Code, &e.Description, &e.Module, &deprecated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find exact %q: %w", code, err)
	}
	e.Deprecated = deprecated != 0
	return &e, nil
}

// FindByPrefix returns entries whose code starts with prefix.
func (s *SQLiteStore) FindByPrefix(ctx context.Context, prefix string, limit int) ([]*Entry, error) {
	return s.queryEntries(ctx,
		`SELECT code, description, module, deprecated
		 FROM tcodes
		 WHERE code LIKE ? ESCAPE '\' COLLATE NOCASE AND deprecated = 0
		 ORDER BY length(code), code LIMIT ?`,
		escapeLike(prefix)+"%", limit)
}

// FindBySubstring returns entries whose code contains fragment.
func (s *SQLiteStore) FindBySubstring(ctx context.Context, fragment string, limit int) ([]*Entry, error) {
	return s.queryEntries(ctx,
		`SELECT code, description, module, deprecated
		 FROM tcodes
		 WHERE code LIKE ? ESCAPE '\' COLLATE NOCASE AND deprecated = 0
		 ORDER BY length(code), code LIMIT ?`,
		"%"+escapeLike(fragment)+"%", limit)
}

// FindByIn returns the non-deprecated entries among the given codes.
func (s *SQLiteStore) FindByIn(ctx context.Context, codes []string) ([]*Entry, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(codes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(codes)+0)
	for i, c := range codes {
		args[i] = strings.TrimSpace(c)
	}

	query := fmt.Sprintf(
		`SELECT code, description, module, deprecated
		 FROM tcodes
		 WHERE code IN (%s) COLLATE NOCASE AND deprecated = 0`, placeholders)

	return s.queryEntries(ctx, query, args...)
}

// ListAll streams every non-deprecated entry.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]*Entry, error) {
	return s.queryEntries(ctx,
		`SELECT code, description, module, deprecated
		 FROM tcodes WHERE deprecated = 0 ORDER BY code`)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var deprecated int
		if err := rows.Scan(&e.Code, &e.Description, &e.Module, &deprecated); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		e.Deprecated = deprecated != 0
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// SumVotes aggregates feedback votes grouped by code.
func (s *SQLiteStore) SumVotes(ctx context.Context, codes []string) (map[string]VoteCount, error) {
	if len(codes) == 0 {
		return map[string]VoteCount{}, nil
	}
	placeholders := strings.Repeat("?,", len(codes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}

	query := fmt.Sprintf(
		`SELECT code,
		        SUM(CASE WHEN vote = 1 THEN 1 ELSE 0 END),
		        SUM(CASE WHEN vote = -1 THEN 1 ELSE 0 END)
		 FROM feedback
		 WHERE code IN (%s) COLLATE NOCASE
		 GROUP BY code`, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]VoteCount)
	for rows.Next() {
		var vc VoteCount
		if err := rows.Scan(&vc.Code, &vc.Upvotes, &vc.Downvotes); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		counts[strings.ToUpper(vc.Code)] = vc
	}
	return counts, rows.Err()
}

// ListLocales returns the full country alias table.
func (s *SQLiteStore) ListLocales(ctx context.Context) ([]Locale, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, iso_code, aliases FROM countries ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var locales []Locale
	for rows.Next() {
		var l Locale
		var aliases string
		if err := rows.Scan(&l.Code, &l.Name, &l.ISOCode, &aliases); err != nil {
			return nil, fmt.Errorf("scan locale row: %w", err)
		}
		for _, a := range strings.Split(aliases, ",") {
			if a = strings.TrimSpace(a); a != "" {
				l.Aliases = append(l.Aliases, a)
			}
		}
		locales = append(locales, l)
	}
	return locales, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the handle for test seeding.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// escapeLike escapes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
