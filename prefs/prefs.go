// Package prefs persists the user's theme and onboarding flags. Values are
// read once at startup and handed to the components that need them.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// Theme is the colour scheme of the app.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// DefaultTheme applies until the user picks one.
const DefaultTheme = ThemeDark

const (
	keyTheme     = "theme"
	keyOnboarded = "onboarded"
)

const prefsSchema = `
CREATE TABLE IF NOT EXISTS prefs (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// ErrInvalidTheme is returned by SetTheme for values other than dark or light.
var ErrInvalidTheme = errors.New("prefs: invalid theme")

// Snapshot is every stored flag, with defaults filled in.
type Snapshot struct {
	Theme     Theme `json:"theme"`
	Onboarded bool  `json:"onboarded"`
}

// Store is a small key/value table in an SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the store at path. The path ":memory:" keeps
// everything in memory.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("prefs: create directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("prefs: open database: %w", err)
	}
	if path == ":memory:" {
		// Every new connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: connect: %w", err)
	}
	if _, err := db.Exec(prefsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("prefs: write %s: %w", key, err)
	}
	return nil
}

// Theme returns the stored theme. Unknown stored values read as the default.
func (s *Store) Theme(ctx context.Context) (Theme, error) {
	v, ok, err := s.get(ctx, keyTheme)
	if err != nil || !ok {
		return DefaultTheme, err
	}
	t := Theme(v)
	if !t.Valid() {
		return DefaultTheme, nil
	}
	return t, nil
}

func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	return s.set(ctx, keyTheme, string(t))
}

// Onboarded reports whether the user has completed the onboarding guide.
func (s *Store) Onboarded(ctx context.Context) (bool, error) {
	v, ok, err := s.get(ctx, keyOnboarded)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}
	return b, nil
}

func (s *Store) SetOnboarded(ctx context.Context, done bool) error {
	return s.set(ctx, keyOnboarded, strconv.FormatBool(done))
}

// Load reads every flag.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	theme, err := s.Theme(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	onboarded, err := s.Onboarded(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Theme: theme, Onboarded: onboarded}, nil
}

// Valid reports whether t is dark or light.
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// Dark reports whether t is the dark theme.
func (t Theme) Dark() bool {
	return t != ThemeLight
}
