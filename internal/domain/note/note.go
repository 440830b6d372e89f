package note

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("note not found")

// Note JSON keeps the field names the web client already reads (_id, user).
type Note struct {
	ID        string    `json:"_id" bson:"_id"`
	OwnerID   string    `json:"user" bson:"owner_id"`
	Title     string    `json:"title" bson:"title"`
	Body      string    `json:"body" bson:"body"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

type CreateNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// UpdateNoteRequest is a partial update; nil fields are left untouched.
// The owner of a note cannot be changed.
type UpdateNoteRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

// Patch is the normalized set of changes a store applies.
type Patch struct {
	Title     *string
	Body      *string
	UpdatedAt time.Time
}

func New(ownerID, title, body string, now time.Time) Note {
	return Note{
		ID:        newID(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply returns n with the patch applied.
func (n Note) Apply(p Patch) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	n.UpdatedAt = p.UpdatedAt
	return n
}

// NextUpdatedAt returns a timestamp strictly after prev, at millisecond
// precision so every store keeps it exactly.
func NextUpdatedAt(prev, now time.Time) time.Time {
	t := now.UTC().Truncate(time.Millisecond)
	if !t.After(prev) {
		t = prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return t
}

// Newer reports whether a sorts before b in a newest-first listing.
func Newer(a, b Note) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// v7 ids are time ordered, which gives a stable tie-break for notes created
// in the same millisecond.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
