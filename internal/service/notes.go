package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/quicknotes/internal/apperr"
	"github.com/geocoder89/quicknotes/internal/cache"
	"github.com/geocoder89/quicknotes/internal/domain/note"
)

// NoteStore mutations are conditioned on (id, ownerID) so the ownership
// check and the write happen in a single store operation.
type NoteStore interface {
	Create(ctx context.Context, n note.Note) (note.Note, error)
	GetByID(ctx context.Context, id string) (note.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error)
	UpdateOwned(ctx context.Context, id, ownerID string, p note.Patch) (note.Note, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// ListCache is a read-through cache of owner lists. GetNotes hands back the
// generation it looked at; SetNotes stores under that generation so a list
// read from the store before an Invalidate is never served after it.
type ListCache interface {
	GetNotes(ctx context.Context, ownerID string) ([]note.Note, cache.Generation, bool)
	SetNotes(ctx context.Context, ownerID string, gen cache.Generation, notes []note.Note)
	Invalidate(ctx context.Context, ownerID string)
}

type NotesService struct {
	store NoteStore
	cache ListCache
	log   *slog.Logger
	now   func() time.Time
}

type NotesOption func(*NotesService)

func WithListCache(c ListCache) NotesOption {
	return func(s *NotesService) { s.cache = c }
}

func WithNotesClock(now func() time.Time) NotesOption {
	return func(s *NotesService) { s.now = now }
}

func NewNotesService(store NoteStore, log *slog.Logger, opts ...NotesOption) *NotesService {
	if log == nil {
		log = slog.Default()
	}
	s := &NotesService{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the owner's notes, newest created first.
func (s *NotesService) List(ctx context.Context, ownerID string) ([]note.Note, error) {
	if ownerID == "" {
		return nil, apperr.ErrInvalidToken
	}

	gen := cache.NoGeneration
	if s.cache != nil {
		notes, g, ok := s.cache.GetNotes(ctx, ownerID)
		if ok {
			return notes, nil
		}
		gen = g
	}

	notes, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("Could not list notes", err)
	}

	if notes == nil {
		notes = []note.Note{}
	}
	sort.SliceStable(notes, func(i, j int) bool { return note.Newer(notes[i], notes[j]) })

	if s.cache != nil {
		s.cache.SetNotes(ctx, ownerID, gen, notes)
	}
	return notes, nil
}

func (s *NotesService) Create(ctx context.Context, ownerID string, req note.CreateNoteRequest) (note.Note, error) {
	if ownerID == "" {
		return note.Note{}, apperr.ErrInvalidToken
	}

	if strings.TrimSpace(req.Title) == "" {
		return note.Note{}, apperr.ErrTitleRequired
	}

	n := note.New(ownerID, req.Title, req.Body, s.timestamp())

	created, err := s.store.Create(ctx, n)
	if err != nil {
		return note.Note{}, apperr.Internal("Could not create note", err)
	}

	s.invalidate(ctx, ownerID)
	s.log.DebugContext(ctx, "note created", "note_id", created.ID, "owner_id", ownerID)
	return created, nil
}

func (s *NotesService) Update(ctx context.Context, ownerID, noteID string, req note.UpdateNoteRequest) (note.Note, error) {
	current, err := s.loadOwned(ctx, ownerID, noteID)
	if err != nil {
		return note.Note{}, err
	}

	patch := note.Patch{Body: req.Body}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return note.Note{}, apperr.ErrTitleRequired
		}
		patch.Title = &title
	}
	patch.UpdatedAt = note.NextUpdatedAt(current.UpdatedAt, s.now())

	updated, err := s.store.UpdateOwned(ctx, noteID, ownerID, patch)
	if err != nil {
		// deleted (or never visible) between the load and the write
		if errors.Is(err, note.ErrNotFound) {
			return note.Note{}, apperr.ErrNoteNotFound
		}
		return note.Note{}, apperr.Internal("Could not update note", err)
	}

	s.invalidate(ctx, ownerID)
	return updated, nil
}

func (s *NotesService) Delete(ctx context.Context, ownerID, noteID string) error {
	if _, err := s.loadOwned(ctx, ownerID, noteID); err != nil {
		return err
	}

	err := s.store.DeleteOwned(ctx, noteID, ownerID)
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			return apperr.ErrNoteNotFound
		}
		return apperr.Internal("Could not delete note", err)
	}

	s.invalidate(ctx, ownerID)
	s.log.DebugContext(ctx, "note deleted", "note_id", noteID, "owner_id", ownerID)
	return nil
}

// loadOwned fetches a note for mutation. A missing note is not found for
// every caller; an existing note owned by someone else is not authorized.
func (s *NotesService) loadOwned(ctx context.Context, ownerID, noteID string) (note.Note, error) {
	if ownerID == "" {
		return note.Note{}, apperr.ErrInvalidToken
	}

	n, err := s.store.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			return note.Note{}, apperr.ErrNoteNotFound
		}
		return note.Note{}, apperr.Internal("Server Error", err)
	}

	if err := Authorize(n, ownerID); err != nil {
		s.log.InfoContext(ctx, "note access denied", "note_id", noteID, "owner_id", ownerID)
		return note.Note{}, err
	}
	return n, nil
}

// Authorize reports whether ownerID may mutate n.
func Authorize(n note.Note, ownerID string) error {
	if ownerID == "" || n.OwnerID != ownerID {
		return apperr.ErrNotOwner
	}
	return nil
}

func (s *NotesService) invalidate(ctx context.Context, ownerID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ownerID)
	}
}

func (s *NotesService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
