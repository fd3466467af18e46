package userdir

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Store is what the admin surface needs from the directory.
type Store interface {
	Workers(ctx context.Context) ([]User, error)
	AssignMarkets(ctx context.Context, userID int64, markets []Market) (*User, error)
	MakeAdmin(ctx context.Context, phone string) (*User, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.store.Workers(r.Context())
	if err != nil {
		slog.Error("failed to list workers", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if workers == nil {
		workers = []User{}
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, workers)
}

type assignMarketsRequest struct {
	Markets []Market `json:"markets"`
}

func (h *Handler) AssignMarkets(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req assignMarketsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		slog.Error("failed to decode assign request", "err", err)
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Markets == nil {
		http.Error(w, "markets must be an array", http.StatusBadRequest)
		return
	}

	user, err := h.store.AssignMarkets(r.Context(), id, req.Markets)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to assign markets", "err", err, "user_id", id)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, user)
}

type makeAdminRequest struct {
	Phone string `json:"phone"`
}

func (h *Handler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	var req makeAdminRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		slog.Error("failed to decode make-admin request", "err", err)
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}

	user, err := h.store.MakeAdmin(r.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to promote user", "err", err, "phone", req.Phone)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, user)
}
