package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/quicknotes/internal/domain/note"
)

// NotesRepo keeps notes in process. Each method holds the lock for its whole
// read-check-write so conditional mutations are atomic.
type NotesRepo struct {
	mu    sync.RWMutex
	items map[string]note.Note
}

func NewNotesRepo() *NotesRepo {
	return &NotesRepo{
		items: make(map[string]note.Note),
	}
}

func (r *NotesRepo) Create(ctx context.Context, n note.Note) (note.Note, error) {
	if err := ctx.Err(); err != nil {
		return note.Note{}, err
	}

	r.mu.Lock()
	r.items[n.ID] = n
	r.mu.Unlock()

	return n, nil
}

func (r *NotesRepo) GetByID(ctx context.Context, id string) (note.Note, error) {
	if err := ctx.Err(); err != nil {
		return note.Note{}, err
	}

	r.mu.RLock()
	n, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return note.Note{}, note.ErrNotFound
	}
	return n, nil
}

func (r *NotesRepo) ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]note.Note, 0)
	for _, n := range r.items {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return note.Newer(out[i], out[j]) })
	return out, nil
}

func (r *NotesRepo) UpdateOwned(ctx context.Context, id, ownerID string, p note.Patch) (note.Note, error) {
	if err := ctx.Err(); err != nil {
		return note.Note{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok || n.OwnerID != ownerID {
		return note.Note{}, note.ErrNotFound
	}

	n = n.Apply(p)
	r.items[id] = n
	return n, nil
}

func (r *NotesRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok || n.OwnerID != ownerID {
		return note.ErrNotFound
	}

	delete(r.items, id)
	return nil
}

func (r *NotesRepo) Ping(context.Context) error { return nil }
