package handler

import (
	"net/http"
)

// Information handles GET /information.
func (h *Handler) Information(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Information(r.Context())
	if err != nil {
		h.fail(w, r, "information", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Lines handles GET /lines.
func (h *Handler) Lines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.store.Lines(r.Context())
	if err != nil {
		h.fail(w, r, "lines", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(lines))
}

// Line handles GET /line/{id}.
func (h *Handler) Line(w http.ResponseWriter, r *http.Request) {
	one(h, "line", h.store.Line)(w, r)
}

// Trip handles GET /trip/{id}.
func (h *Handler) Trip(w http.ResponseWriter, r *http.Request) {
	one(h, "trip", h.store.Trip)(w, r)
}

// TripStops handles GET /trip/{id}/stops.
func (h *Handler) TripStops(w http.ResponseWriter, r *http.Request) {
	children(h, "trip", h.store.Trip, h.store.TripStops)(w, r)
}

// Shape handles GET /shape/{id}.
func (h *Handler) Shape(w http.ResponseWriter, r *http.Request) {
	one(h, "shape", h.store.Shape)(w, r)
}

// ShapeStops handles GET /shape/{id}/stops.
func (h *Handler) ShapeStops(w http.ResponseWriter, r *http.Request) {
	children(h, "shape", h.store.Shape, h.store.ShapeStops)(w, r)
}

// ShapePoints handles GET /shape/{id}/points. A shape that was never
// snapped to roads has an empty point list.
func (h *Handler) ShapePoints(w http.ResponseWriter, r *http.Request) {
	children(h, "shape", h.store.Shape, h.store.ShapePoints)(w, r)
}

// Direction handles GET /direction/{id}.
func (h *Handler) Direction(w http.ResponseWriter, r *http.Request) {
	one(h, "direction", h.store.Direction)(w, r)
}

// DirectionLegs handles GET /direction/{id}/legs.
func (h *Handler) DirectionLegs(w http.ResponseWriter, r *http.Request) {
	children(h, "direction", h.store.Direction, h.store.DirectionLegs)(w, r)
}

// DirectionSteps handles GET /direction/{id}/legs/steps, the steps of every
// leg in travel order.
func (h *Handler) DirectionSteps(w http.ResponseWriter, r *http.Request) {
	children(h, "direction", h.store.Direction, h.store.DirectionSteps)(w, r)
}

// Leg handles GET /leg/{id}.
func (h *Handler) Leg(w http.ResponseWriter, r *http.Request) {
	one(h, "leg", h.store.Leg)(w, r)
}

// LegSteps handles GET /leg/{id}/steps.
func (h *Handler) LegSteps(w http.ResponseWriter, r *http.Request) {
	children(h, "leg", h.store.Leg, h.store.LegSteps)(w, r)
}

// StepPath handles GET /step/{id}/path. Steps are not addressable on their
// own, so an unknown step yields an empty path.
func (h *Handler) StepPath(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	path, err := h.store.StepPath(r.Context(), id)
	if err != nil {
		h.fail(w, r, "step path", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(path))
}
