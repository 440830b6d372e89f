package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/quicknotes/internal/domain/note"
	"github.com/geocoder89/quicknotes/internal/domain/user"
)

func TestNotesRepo_ListByOwnerFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	r := NewNotesRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a1, _ := r.Create(ctx, note.New("a", "first", "", base))
	_, _ = r.Create(ctx, note.New("b", "other", "", base.Add(time.Second)))
	a2, _ := r.Create(ctx, note.New("a", "second", "", base.Add(2*time.Second)))

	got, err := r.ListByOwner(ctx, "a")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(got) != 2 || got[0].ID != a2.ID || got[1].ID != a1.ID {
		t.Fatalf("unexpected list: %+v", got)
	}

	empty, err := r.ListByOwner(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v err=%v", empty, err)
	}
}

func TestNotesRepo_ConditionalMutations(t *testing.T) {
	ctx := context.Background()
	r := NewNotesRepo()
	n, _ := r.Create(ctx, note.New("owner", "t", "b", time.Now().UTC()))

	title := "changed"
	if _, err := r.UpdateOwned(ctx, n.ID, "intruder", note.Patch{Title: &title}); !errors.Is(err, note.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner update, got %v", err)
	}
	if err := r.DeleteOwned(ctx, n.ID, "intruder"); !errors.Is(err, note.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner delete, got %v", err)
	}

	got, _ := r.GetByID(ctx, n.ID)
	if got.Title != "t" {
		t.Fatalf("note mutated by non-owner: %+v", got)
	}

	if err := r.DeleteOwned(ctx, n.ID, "owner"); err != nil {
		t.Fatalf("DeleteOwned error: %v", err)
	}
	if err := r.DeleteOwned(ctx, n.ID, "owner"); !errors.Is(err, note.ErrNotFound) {
		t.Fatalf("expected second delete to be ErrNotFound, got %v", err)
	}
}

func TestNotesRepo_ConcurrentUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	r := NewNotesRepo()
	n, _ := r.Create(ctx, note.New("owner", "t", "", time.Now().UTC()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			body := "x"
			_, _ = r.UpdateOwned(ctx, n.ID, "owner", note.Patch{Body: &body, UpdatedAt: time.Now()})
		}()
		go func() {
			defer wg.Done()
			_ = r.DeleteOwned(ctx, n.ID, "owner")
		}()
	}
	wg.Wait()

	if _, err := r.GetByID(ctx, n.ID); !errors.Is(err, note.ErrNotFound) {
		t.Fatalf("expected note to be gone, got %v", err)
	}
}

func TestNotesRepo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewNotesRepo()
	if _, err := r.Create(ctx, note.New("o", "t", "", time.Now())); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got, _ := r.ListByOwner(context.Background(), "o"); len(got) != 0 {
		t.Fatalf("canceled create must not write, got %+v", got)
	}
}

func TestUsersRepo_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	if _, err := r.Create(ctx, user.New("Ann", "ann@x.com", "hash", time.Now())); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := r.Create(ctx, user.New("Ann 2", "  ANN@x.com ", "hash", time.Now())); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := r.GetByEmail(ctx, "Ann@X.com")
	if err != nil || got.Name != "Ann" {
		t.Fatalf("unexpected lookup: %+v err=%v", got, err)
	}
	if _, err := r.GetByEmail(ctx, "bob@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
