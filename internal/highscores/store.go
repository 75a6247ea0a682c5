package highscores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrCorruptTable marks a high-score file that exists but cannot be decoded.
var ErrCorruptTable = errors.New("corrupt high-score table")

// FileStore keeps the whole sorted table as a JSON list. A corrupt file is
// renamed to <path>.corrupt-<timestamp> on the next Add.
type FileStore struct {
	mu   sync.Mutex
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Add(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if errors.Is(err, ErrCorruptTable) {
		// Keep the unreadable table next to the new one rather than losing it.
		backup := fmt.Sprintf("%s.corrupt-%s", s.Path, time.Now().UTC().Format("20060102T150405"))
		if rerr := os.Rename(s.Path, backup); rerr != nil {
			return fmt.Errorf("move aside corrupt high scores: %w", rerr)
		}
		entries = nil
	} else if err != nil {
		return err
	}
	entries, _ = Insert(entries, e)
	return s.write(entries)
}

func (s *FileStore) read() ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read high scores %s: %w", s.Path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorruptTable, s.Path, err)
	}
	Sort(entries)
	return entries, nil
}

func (s *FileStore) write(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode high scores: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".highscores-*.json")
	if err != nil {
		return fmt.Errorf("write high scores: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write high scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write high scores: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path)
}

// PostgresStore keeps one row per recorded score; the serial id preserves
// insertion order for ties.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT team_name, score
		FROM highscores
		ORDER BY score DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load high scores: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Add(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO highscores (team_name, score, created_at)
		VALUES ($1, $2, NOW())
	`, e.TeamName, e.Score)
	if err != nil {
		return fmt.Errorf("insert high score: %w", err)
	}
	return nil
}
