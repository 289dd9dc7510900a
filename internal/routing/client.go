// Package routing computes travel legs between consecutive stops with a
// Google Directions style API.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/twpayne/go-polyline"
	"gopkg.in/resty.v1"
)

// MaxWaypoints is the number of points accepted per request, origin and
// destination included.
const MaxWaypoints = 25

// DefaultBaseURL is the Google Directions JSON endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

func (p Point) String() string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

// Step is a navigation step of a leg. Distance is in meters, Duration in seconds.
type Step struct {
	Distance int
	Duration int
	Start    Point
	End      Point
	Path     []Point
}

// Leg joins points From and From+1 of the routed point list.
type Leg struct {
	From     int
	Distance int
	Duration int
	Start    Point
	End      Point
	Steps    []Step
}

// Result holds the legs computed for one point list. Legs of failed chunks
// are missing.
type Result struct {
	Legs         []Leg
	Chunks       int
	FailedChunks int
}

// LookupError describes a chunk request that produced no legs.
type LookupError struct {
	Chunk  int
	Status string
	Err    error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("routing chunk %d: %v", e.Chunk, e.Err)
	}
	return fmt.Sprintf("routing chunk %d: status %s", e.Chunk, e.Status)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Client is a Directions and Roads API client.
type Client struct {
	baseURL  string
	roadsURL string
	apiKey   string
	client   *resty.Client
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewClient creates a Directions client. Each request is bounded by timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:  baseURL,
		roadsURL: DefaultRoadsURL,
		apiKey:   apiKey,
		client:   resty.New().SetTimeout(timeout),
		cache:    cache.New(24*time.Hour, time.Hour),
		logger:   logger,
	}
}

// Chunks splits n points into request windows of at most MaxWaypoints.
// Consecutive windows share their boundary point so every consecutive pair
// is covered. Each window is [start, end] inclusive.
func Chunks(n int) [][2]int {
	var out [][2]int
	for start := 0; start < n-1; {
		end := min(start+MaxWaypoints-1, n-1)
		out = append(out, [2]int{start, end})
		start = end
	}
	return out
}

// Route computes legs between consecutive points. A chunk that fails or
// times out contributes no legs; Route itself never fails.
func (c *Client) Route(ctx context.Context, points []Point) Result {
	var res Result
	for i, ch := range Chunks(len(points)) {
		res.Chunks++
		legs, err := c.routeChunk(ctx, points[ch[0]:ch[1]+1])
		if err != nil {
			res.FailedChunks++
			c.logger.Warn("routing chunk failed", "error", &LookupError{Chunk: i, Err: err}, "points", ch[1]-ch[0]+1)
			continue
		}
		for j := range legs {
			legs[j].From = ch[0] + j
		}
		res.Legs = append(res.Legs, legs...)
	}
	return res
}

func (c *Client) routeChunk(ctx context.Context, pts []Point) ([]Leg, error) {
	q := url.Values{
		"origin":      {pts[0].String()},
		"destination": {pts[len(pts)-1].String()},
	}
	if len(pts) > 2 {
		wp := make([]string, 0, len(pts)-2)
		for _, p := range pts[1 : len(pts)-1] {
			wp = append(wp, p.String())
		}
		q.Set("waypoints", strings.Join(wp, "|"))
	}
	cacheKey := q.Encode()
	if cached, ok := c.cache.Get(cacheKey); ok {
		return append([]Leg(nil), cached.([]Leg)...), nil
	}
	q.Set("key", c.apiKey)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.baseURL + "?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("directions request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("directions status %d", resp.StatusCode())
	}

	var body directionsResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("directions decode: %w", err)
	}
	if body.Status != "" && body.Status != "OK" {
		return nil, fmt.Errorf("directions status %s: %s", body.Status, body.ErrorMessage)
	}
	if len(body.Routes) == 0 {
		return nil, fmt.Errorf("directions returned no route")
	}

	rl := body.Routes[0].Legs
	if len(rl) != len(pts)-1 {
		c.logger.Warn("unexpected leg count", "got", len(rl), "want", len(pts)-1)
		rl = rl[:min(len(rl), len(pts)-1)]
	}
	legs := make([]Leg, 0, len(rl))
	for _, l := range rl {
		leg := Leg{
			Distance: l.Distance.Value,
			Duration: l.Duration.Value,
			Start:    l.StartLocation.point(),
			End:      l.EndLocation.point(),
		}
		for _, s := range l.Steps {
			leg.Steps = append(leg.Steps, Step{
				Distance: s.Distance.Value,
				Duration: s.Duration.Value,
				Start:    s.StartLocation.point(),
				End:      s.EndLocation.point(),
				Path:     c.decodePath(s.Polyline.Points),
			})
		}
		legs = append(legs, leg)
	}

	c.cache.Set(cacheKey, legs, cache.DefaultExpiration)
	return append([]Leg(nil), legs...), nil
}

func (c *Client) decodePath(encoded string) []Point {
	if encoded == "" {
		return nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		c.logger.Debug("bad step polyline", "error", err)
		return nil
	}
	path := make([]Point, len(coords))
	for i, ll := range coords {
		path[i] = Point{Lat: ll[0], Lng: ll[1]}
	}
	return path
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance      textValue `json:"distance"`
			Duration      textValue `json:"duration"`
			StartLocation latLng    `json:"start_location"`
			EndLocation   latLng    `json:"end_location"`
			Steps         []struct {
				Distance      textValue `json:"distance"`
				Duration      textValue `json:"duration"`
				StartLocation latLng    `json:"start_location"`
				EndLocation   latLng    `json:"end_location"`
				Polyline      struct {
					Points string `json:"points"`
				} `json:"polyline"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type textValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l latLng) point() Point { return Point{Lat: l.Lat, Lng: l.Lng} }
