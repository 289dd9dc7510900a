package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rtmap/internal/model"
	"rtmap/internal/storage"
)

// Store is the read side of the timetable store.
type Store interface {
	Information(ctx context.Context) (model.Information, error)
	Stop(ctx context.Context, id int) (model.Stop, error)
	StopsWithin(ctx context.Context, lat, lon, latDeg, lonDeg float64, limit int) ([]model.Stop, error)
	Lines(ctx context.Context) ([]model.Line, error)
	Line(ctx context.Context, id int) (model.Line, error)
	Calendar(ctx context.Context, id int) (model.Calendar, error)
	Shape(ctx context.Context, id int) (model.Shape, error)
	ShapeStops(ctx context.Context, shapeID int) ([]model.ShapeStop, error)
	ShapePoints(ctx context.Context, shapeID int) ([]model.ShapePoint, error)
	Direction(ctx context.Context, id int) (model.Direction, error)
	DirectionLegs(ctx context.Context, directionID int) ([]model.DirectionLeg, error)
	DirectionSteps(ctx context.Context, directionID int) ([]model.LegStep, error)
	Leg(ctx context.Context, id int) (model.DirectionLeg, error)
	LegSteps(ctx context.Context, legID int) ([]model.LegStep, error)
	StepPath(ctx context.Context, stepID int) ([]model.StepPath, error)
	Trip(ctx context.Context, id int) (model.Trip, error)
	TripStops(ctx context.Context, tripID int) ([]model.TripStop, error)
	GetMetadata(ctx context.Context, key string) (string, error)
	HasData(ctx context.Context) bool
	Driver() string
}

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// New creates a Handler.
func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// fail maps a store error to a response. ErrNotFound becomes 404, anything
// else is logged and reported as 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	h.logger.Error("fetching "+what, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "failed to retrieve "+what)
}

// idParam parses the {id} URL parameter. It writes a 400 and returns false
// when the id is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

// one serves a single entity looked up by {id}.
func one[T any](h *Handler, what string, get func(context.Context, int) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		v, err := get(r.Context(), id)
		if err != nil {
			h.fail(w, r, what, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// children serves the entities belonging to the parent {id}. The parent must
// exist; an existing parent with no children yields an empty array.
func children[P, T any](h *Handler, what string, parent func(context.Context, int) (P, error), list func(context.Context, int) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if _, err := parent(r.Context(), id); err != nil {
			h.fail(w, r, what, err)
			return
		}
		items, err := list(r.Context(), id)
		if err != nil {
			h.fail(w, r, what, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(items))
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
