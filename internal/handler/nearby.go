package handler

import (
	"net/http"
	"sort"
	"strconv"

	"rtmap/internal/geo"
	"rtmap/internal/model"
)

const (
	defaultRadius = 500.0
	maxRadius     = 5000.0
	defaultLimit  = 20
	maxLimit      = 100
)

// NearbyStop is a stop with its distance from the query point in meters.
type NearbyStop struct {
	model.Stop
	Distance float64 `json:"distance"`
}

// Stop handles GET /stop/{id}.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	one(h, "stop", h.store.Stop)(w, r)
}

// Nearby handles GET /stops/nearby?lat=&lon=[&radius=][&limit=]. Stops are
// ordered by great-circle distance; radius is in meters.
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(q.Get("lon"), 64)
	if err1 != nil || err2 != nil || !geo.ValidLatLon(lat, lon) {
		writeError(w, http.StatusBadRequest, "lat and lon must be WGS84 coordinates")
		return
	}

	radius := defaultRadius
	if s := q.Get("radius"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid radius")
			return
		}
		radius = min(v, maxRadius)
	}
	limit := defaultLimit
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(v, maxLimit)
	}

	// The box is a superset of the circle; over-fetch so the corners that
	// fall outside the radius do not starve the result.
	latDeg, lonDeg := geo.BoundingBoxRadius(lat, radius)
	candidates, err := h.store.StopsWithin(r.Context(), lat, lon, latDeg, lonDeg, limit*2)
	if err != nil {
		h.fail(w, r, "stops", err)
		return
	}

	stops := make([]NearbyStop, 0, len(candidates))
	for _, s := range candidates {
		d := geo.Haversine(lat, lon, s.Latitude, s.Longitude)
		if d <= radius {
			stops = append(stops, NearbyStop{Stop: s, Distance: d})
		}
	}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Distance < stops[j].Distance })
	if len(stops) > limit {
		stops = stops[:limit]
	}
	writeJSON(w, http.StatusOK, stops)
}
