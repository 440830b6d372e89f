package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/quicknotes/internal/service"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Signup(ctx context.Context, in service.SignupInput) (service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (service.AuthResult, error)
}

type AuthHandler struct {
	auth Authenticator
	log  *slog.Logger
}

func NewAuthHandler(auth Authenticator, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// Presence of the fields is checked by the authenticator so a missing field
// reports the same message as a blank one.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"max=320"`
	Password string `json:"password"`
}

// Login has no field rules: every bad input ends as invalid credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.auth.Signup(ctx.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		RespondAppError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.auth.Login(ctx.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		RespondAppError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}
