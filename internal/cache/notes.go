package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/geocoder89/quicknotes/internal/domain/note"
)

// Store is the raw key/value backend: Memory or a redis client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// Generation identifies the version of an owner's list a reader saw. Each
// invalidation moves an owner to a new generation, and lists are stored
// under their generation, so a list read before a write can never be served
// after it.
type Generation int64

// NoGeneration is returned when the generation could not be read; SetNotes
// ignores it.
const NoGeneration Generation = -1

// NotesCache caches each owner's note list. Backend errors are logged and
// treated as misses; the database stays the source of truth.
type NotesCache struct {
	store    Store
	ttl      time.Duration
	log      *slog.Logger
	observer Observer
}

type Observer interface {
	ObserveCache(hit bool)
}

func NewNotesCache(store Store, ttl time.Duration, log *slog.Logger) *NotesCache {
	if log == nil {
		log = slog.Default()
	}
	return &NotesCache{store: store, ttl: ttl, log: log}
}

// WithObserver reports every lookup as a hit or a miss.
func (c *NotesCache) WithObserver(o Observer) *NotesCache {
	c.observer = o
	return c
}

func NotesGenerationKey(ownerID string) string {
	return "notes:gen:v1:owner=" + ownerID
}

func NotesListKey(ownerID string, gen Generation) string {
	return "notes:list:v2:owner=" + ownerID + ":gen=" + strconv.FormatInt(int64(gen), 10)
}

// GetNotes returns the cached list for the owner's current generation. On a
// miss the returned generation is the one to pass to SetNotes.
func (c *NotesCache) GetNotes(ctx context.Context, ownerID string) ([]note.Note, Generation, bool) {
	gen := c.generation(ctx, ownerID)
	if gen == NoGeneration {
		c.observe(false)
		return nil, gen, false
	}

	notes, ok := c.lookup(ctx, NotesListKey(ownerID, gen))
	c.observe(ok)
	return notes, gen, ok
}

// SetNotes stores notes as the list of generation gen. If the owner has
// moved on since gen was read, the entry is never looked up again and just
// expires.
func (c *NotesCache) SetNotes(ctx context.Context, ownerID string, gen Generation, notes []note.Note) {
	if gen == NoGeneration {
		return
	}
	raw, err := json.Marshal(notes)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, NotesListKey(ownerID, gen), raw, c.ttl); err != nil {
		c.log.WarnContext(ctx, "notes cache set failed", "err", err)
	}
}

// Invalidate moves the owner to a new generation and drops the previous list.
func (c *NotesCache) Invalidate(ctx context.Context, ownerID string) {
	next, err := c.store.Incr(ctx, NotesGenerationKey(ownerID))
	if err != nil {
		c.log.WarnContext(ctx, "notes cache invalidate failed", "err", err)
		return
	}
	if err := c.store.Delete(ctx, NotesListKey(ownerID, Generation(next-1))); err != nil {
		c.log.WarnContext(ctx, "notes cache delete failed", "err", err)
	}
}

func (c *NotesCache) generation(ctx context.Context, ownerID string) Generation {
	raw, ok, err := c.store.Get(ctx, NotesGenerationKey(ownerID))
	if err != nil {
		c.log.WarnContext(ctx, "notes cache generation read failed", "err", err)
		return NoGeneration
	}
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || n < 0 {
		c.log.WarnContext(ctx, "notes cache generation unreadable", "value", string(raw))
		return NoGeneration
	}
	return Generation(n)
}

func (c *NotesCache) lookup(ctx context.Context, key string) ([]note.Note, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "notes cache get failed", "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var notes []note.Note
	if err := json.Unmarshal(raw, &notes); err != nil {
		c.log.WarnContext(ctx, "notes cache entry unreadable", "err", err)
		_ = c.store.Delete(ctx, key)
		return nil, false
	}
	return notes, true
}

func (c *NotesCache) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCache(hit)
	}
}
