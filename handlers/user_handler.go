package handlers

import (
	"context"
	"net/http"
	"time"

	"tripRecapAPI/internal/user"
	"tripRecapAPI/internal/validation"
	"tripRecapAPI/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.RegisterRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondWithServiceError(w, r, err, "Failed to register user")
		return
	}

	resp, err := h.userService.Register(ctx, &req)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to register user")
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

// Login takes the credentials from the query string.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	req := user.LoginRequest{
		Email:    r.URL.Query().Get("email"),
		Password: r.URL.Query().Get("password"),
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err, "Failed to log in")
		return
	}

	resp, err := h.userService.Login(ctx, &req)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to log in")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
