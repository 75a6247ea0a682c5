package highscores

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Entry is one row of the high-score table.
type Entry struct {
	TeamName string `json:"team_name" db:"team_name"`
	Score    int    `json:"score" db:"score"`
}

// Store persists the table. Load returns entries sorted by score descending,
// ties in insertion order.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Add(ctx context.Context, e Entry) error
}

// Insert places e after every entry with a score >= e.Score and returns the
// new slice and the 0-based rank of e.
func Insert(entries []Entry, e Entry) ([]Entry, int) {
	pos := sort.Search(len(entries), func(i int) bool {
		return entries[i].Score < e.Score
	})
	entries = append(entries, Entry{})
	copy(entries[pos+1:], entries[pos:])
	entries[pos] = e
	return entries, pos
}

// Sort orders entries by score descending, keeping the relative order of ties.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

// Board is the in-memory table backed by a Store.
type Board struct {
	mu      sync.RWMutex
	entries []Entry
	store   Store
	log     *zap.SugaredLogger
}

// NewBoard loads the table from store. A missing or unreadable table starts empty.
func NewBoard(ctx context.Context, store Store, log *zap.SugaredLogger) *Board {
	b := &Board{store: store, log: log}
	if store == nil {
		return b
	}
	entries, err := store.Load(ctx)
	if err != nil {
		log.Warnf("[HIGHSCORES] Couldn't load high scores (%v), starting with an empty table", err)
		return b
	}
	Sort(entries)
	b.entries = entries
	log.Infof("[HIGHSCORES] Loaded %d high scores", len(entries))
	return b
}

// Add records a score and returns the entry with its rank. The entry is
// ranked even when persisting it fails; the error is returned for logging.
func (b *Board) Add(ctx context.Context, team string, score int) (Entry, int, error) {
	e := Entry{TeamName: team, Score: score}

	b.mu.Lock()
	var rank int
	b.entries, rank = Insert(b.entries, e)
	b.mu.Unlock()

	if b.store == nil {
		return e, rank, nil
	}
	return e, rank, b.store.Add(ctx, e)
}

// Top returns a copy of the best n entries.
func (b *Board) Top(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n < 0 || n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]Entry, n)
	copy(out, b.entries[:n])
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
