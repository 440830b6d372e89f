package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/quicknotes/internal/apperr"
	"github.com/geocoder89/quicknotes/internal/domain/note"
	"github.com/geocoder89/quicknotes/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type NotesService interface {
	List(ctx context.Context, ownerID string) ([]note.Note, error)
	Create(ctx context.Context, ownerID string, req note.CreateNoteRequest) (note.Note, error)
	Update(ctx context.Context, ownerID, noteID string, req note.UpdateNoteRequest) (note.Note, error)
	Delete(ctx context.Context, ownerID, noteID string) error
}

type NotesHandler struct {
	notes NotesService
	log   *slog.Logger
}

func NewNotesHandler(notes NotesService, log *slog.Logger) *NotesHandler {
	return &NotesHandler{notes: notes, log: log}
}

type DeleteNoteResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

func (h *NotesHandler) ListNotes(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	notes, err := h.notes.List(ctx.Request.Context(), ownerID)
	if err != nil {
		RespondAppError(ctx, h.log, err)
		return
	}

	ctx.Header("Cache-Control", "private, no-cache")
	RespondJSONWithETag(ctx, http.StatusOK, notes)
}

func (h *NotesHandler) CreateNote(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	var req note.CreateNoteRequest
	if !BindJSON(ctx, &req) {
		return
	}

	n, err := h.notes.Create(ctx.Request.Context(), ownerID, req)
	if err != nil {
		RespondAppError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, n)
}

func (h *NotesHandler) UpdateNote(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	var req note.UpdateNoteRequest
	if !BindJSON(ctx, &req) {
		return
	}

	n, err := h.notes.Update(ctx.Request.Context(), ownerID, ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, n)
}

func (h *NotesHandler) DeleteNote(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	if err := h.notes.Delete(ctx.Request.Context(), ownerID, id); err != nil {
		RespondAppError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, DeleteNoteResponse{OK: true, ID: id})
}

// owner reads the id the auth gate stored. A route mounted without the gate
// fails closed.
func (h *NotesHandler) owner(ctx *gin.Context) (string, bool) {
	ownerID, ok := middlewares.OwnerIDFromContext(ctx)
	if !ok {
		RespondAppError(ctx, h.log, apperr.ErrNoToken)
		return "", false
	}
	return ownerID, true
}
