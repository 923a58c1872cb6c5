// Package distancematrix is a client for the Google Distance Matrix API,
// restricted to the one-origin, many-destination form.
package distancematrix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nearby-api/internal/logger"
	"nearby-api/internal/metrics"
)

const (
	DefaultEndpoint = "https://maps.googleapis.com/maps/api/distancematrix/json"
	// MaxDestinations is the per-request destination limit of the free tier.
	MaxDestinations = 25
	StatusOK        = "OK"
)

var (
	ErrMissingKey = errors.New("distancematrix: missing api key")
	ErrNotOK      = errors.New("distancematrix: top-level status not OK")
)

// StatusError is returned when the service answers with a non-200 HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("distancematrix: unexpected http status %d", e.Code)
}

// Response mirrors the service payload. Elements are kept raw so that one
// malformed element does not fail the decode of the whole response.
type Response struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Rows         []Row  `json:"rows"`
}

type Row struct {
	Elements []json.RawMessage `json:"elements"`
}

// Elements returns the elements of the first row, one per destination in
// request order.
func (r *Response) Elements() []json.RawMessage {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0].Elements
}

type Element struct {
	Status   string `json:"status"`
	Distance *struct {
		Value *float64 `json:"value"`
		Text  string   `json:"text"`
	} `json:"distance"`
}

// DecodeElement decodes one element and returns its distance in meters.
// ok is false when the element is malformed, not OK, or lacks a distance.
func DecodeElement(raw json.RawMessage) (meters float64, ok bool) {
	var e Element
	if err := json.Unmarshal(raw, &e); err != nil {
		return 0, false
	}
	if e.Status != StatusOK || e.Distance == nil || e.Distance.Value == nil {
		return 0, false
	}
	if *e.Distance.Value < 0 {
		return 0, false
	}
	return *e.Distance.Value, true
}

// Client issues distance matrix requests. It is safe for concurrent use.
type Client struct {
	endpoint string
	key      string
	http     *http.Client
}

// New returns a client. An empty endpoint selects DefaultEndpoint; a nil
// http client is replaced by one with a 10s timeout.
func New(endpoint, key string, hc *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, key: key, http: hc}
}

// Matrix requests distances from origin to every destination.
//
// Origin and destinations are "lat,lon" pairs; at most MaxDestinations per
// call. A non-OK top-level status is reported as ErrNotOK together with the
// decoded response. Every call, failed or not, is observed in the duration
// histogram; failures are counted by reason (transport, http_status,
// decode, service_status).
func (c *Client) Matrix(ctx context.Context, origin string, destinations []string) (*Response, error) {
	if c.key == "" {
		return nil, ErrMissingKey
	}
	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", strings.Join(destinations, "|"))
	q.Set("key", c.key)
	q.Set("units", "metric")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	t0 := time.Now()
	defer func() { metrics.DistanceDurationMs.Observe(float64(time.Since(t0).Milliseconds())) }()
	metrics.DistanceRequestsTotal.Inc()
	logger.L().Debug("distance_req", "origin", origin, "destinations", len(destinations))
	resp, err := c.http.Do(req)
	if err != nil {
		logger.L().Error("distance_http_error", "err", err)
		metrics.DistanceFailTotal.WithLabelValues("transport").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.DistanceFailTotal.WithLabelValues("http_status").Inc()
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("distance_decode_error", "err", err)
		metrics.DistanceFailTotal.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("distancematrix: decode: %w", err)
	}
	logger.L().Debug("distance_resp", "status", r.Status, "elements", len(r.Elements()), "duration_ms", time.Since(t0).Milliseconds())
	if r.Status != StatusOK {
		metrics.DistanceFailTotal.WithLabelValues("service_status").Inc()
		return &r, fmt.Errorf("%w: %s %s", ErrNotOK, r.Status, r.ErrorMessage)
	}
	metrics.DistanceSuccessTotal.Inc()
	return &r, nil
}
