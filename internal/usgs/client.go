package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/resqhub/quakewatch-be/internal/models"
)

// Sentinel errors distinguishing "upstream is down" from "upstream sent
// something we cannot read". Callers branch on these with errors.Is.
var (
	ErrFeedUnavailable = errors.New("seismic feed unavailable")
	ErrFeedMalformed   = errors.New("seismic feed malformed")
)

// Client fetches the USGS GeoJSON summary feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
}

// NewClient creates a feed client for the given URL. The timeout bounds the
// whole request; there is no retry, a failed fetch simply fails the cycle.
func NewClient(feedURL string, timeout time.Duration) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchLatestEvents performs one GET against the feed and maps every feature
// into an Alert. The upstream coordinate order is [longitude, latitude,
// depthKm] and is preserved exactly when mapping.
func (c *Client) FetchLatestEvents(ctx context.Context) ([]models.Alert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFeedUnavailable, resp.StatusCode, body)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFeedMalformed, err)
	}

	alerts := make([]models.Alert, 0, len(fc.Features))
	for _, f := range fc.Features {
		alert, err := mapFeature(f)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %q: %v", ErrFeedMalformed, f.ID, err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func mapFeature(f feature) (models.Alert, error) {
	if f.ID == "" {
		return models.Alert{}, errors.New("missing feature id")
	}
	if len(f.Geometry.Coordinates) < 3 {
		return models.Alert{}, fmt.Errorf("expected 3 coordinates, got %d", len(f.Geometry.Coordinates))
	}

	p := f.Properties
	alert := models.Alert{
		ExternalID: f.ID,
		Magnitude:  p.Mag,
		Location:   p.Place,
		// GeoJSON axis order: [lng, lat, depth].
		Longitude:      f.Geometry.Coordinates[0],
		Latitude:       f.Geometry.Coordinates[1],
		DepthKm:        f.Geometry.Coordinates[2],
		OccurredAt:     time.UnixMilli(p.Time).UTC(),
		Significance:   p.Sig,
		AlertLevel:     p.Alert,
		TsunamiWarning: p.Tsunami == 1,
		SourceURL:      p.URL,
	}
	if p.Felt != nil {
		alert.FeltReports = *p.Felt
	}
	return alert, nil
}

// USGS GeoJSON summary feed response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type properties struct {
	Mag     float64 `json:"mag"`
	Place   string  `json:"place"`
	Time    int64   `json:"time"` // epoch milliseconds
	Sig     int     `json:"sig"`
	Alert   *string `json:"alert"`
	Felt    *int    `json:"felt"`
	Tsunami int     `json:"tsunami"`
	URL     string  `json:"url"`
}

type geometry struct {
	Coordinates []float64 `json:"coordinates"` // [lng, lat, depthKm]
}
