package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/patrickmn/go-cache"
)

// DefaultRoadsURL is the Google Roads snap-to-roads endpoint.
const DefaultRoadsURL = "https://roads.googleapis.com/v1/snapToRoads"

// MaxSnapPoints is the number of points accepted per snap request.
const MaxSnapPoints = 100

// SnappedPoint is a coordinate on the road network. Input is the index of
// the input point it was snapped from, or -1 for a point the service
// interpolated between inputs.
type SnappedPoint struct {
	Point
	Input int
}

// SetRoadsURL overrides the snap-to-roads endpoint. An empty url keeps the
// default.
func (c *Client) SetRoadsURL(u string) *Client {
	if u != "" {
		c.roadsURL = u
	}
	return c
}

// SnapToRoads snaps points to the road network with interpolation. Inputs
// are sent in windows of MaxSnapPoints; if any window fails the whole path
// is dropped so callers never store a partial road path.
func (c *Client) SnapToRoads(ctx context.Context, points []Point) ([]SnappedPoint, error) {
	var out []SnappedPoint
	for start := 0; start < len(points); start += MaxSnapPoints {
		end := min(start+MaxSnapPoints, len(points))
		snapped, err := c.snapChunk(ctx, points[start:end])
		if err != nil {
			return nil, err
		}
		for _, p := range snapped {
			if p.Input >= 0 {
				p.Input += start
			}
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Client) snapChunk(ctx context.Context, pts []Point) ([]SnappedPoint, error) {
	path := make([]string, len(pts))
	for i, p := range pts {
		path[i] = p.String()
	}
	q := url.Values{
		"interpolate": {"true"},
		"path":        {strings.Join(path, "|")},
	}
	cacheKey := "snap:" + q.Encode()
	if cached, ok := c.cache.Get(cacheKey); ok {
		return append([]SnappedPoint(nil), cached.([]SnappedPoint)...), nil
	}
	q.Set("key", c.apiKey)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.roadsURL + "?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("snap request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("snap status %d", resp.StatusCode())
	}

	var body snapResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("snap decode: %w", err)
	}
	if len(body.SnappedPoints) == 0 {
		return nil, fmt.Errorf("snap returned no points")
	}

	out := make([]SnappedPoint, 0, len(body.SnappedPoints))
	for _, sp := range body.SnappedPoints {
		input := -1
		if sp.OriginalIndex != nil {
			if *sp.OriginalIndex < 0 || *sp.OriginalIndex >= len(pts) {
				return nil, fmt.Errorf("snap original index %d out of range", *sp.OriginalIndex)
			}
			input = *sp.OriginalIndex
		}
		out = append(out, SnappedPoint{
			Point: Point{Lat: sp.Location.Latitude, Lng: sp.Location.Longitude},
			Input: input,
		})
	}

	c.cache.Set(cacheKey, out, cache.DefaultExpiration)
	return append([]SnappedPoint(nil), out...), nil
}

type snapResponse struct {
	SnappedPoints []struct {
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		OriginalIndex *int   `json:"originalIndex"`
		PlaceID       string `json:"placeId"`
	} `json:"snappedPoints"`
}
