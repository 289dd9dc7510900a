package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers the read API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/information", h.Information)

	r.Get("/lines", h.Lines)
	r.Get("/line/{id}", h.Line)
	r.Get("/calendar/{id}", h.Calendar)

	r.Get("/stop/{id}", h.Stop)
	r.Get("/stops/nearby", h.Nearby)

	r.Get("/trip/{id}", h.Trip)
	r.Get("/trip/{id}/stops", h.TripStops)
	r.Get("/shape/{id}", h.Shape)
	r.Get("/shape/{id}/stops", h.ShapeStops)
	r.Get("/shape/{id}/points", h.ShapePoints)

	r.Get("/direction/{id}", h.Direction)
	r.Get("/direction/{id}/legs", h.DirectionLegs)
	r.Get("/direction/{id}/legs/steps", h.DirectionSteps)
	r.Get("/leg/{id}", h.Leg)
	r.Get("/leg/{id}/steps", h.LegSteps)
	r.Get("/step/{id}/path", h.StepPath)
}
