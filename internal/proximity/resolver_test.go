package proximity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby-api/internal/distancematrix"
)

func ptr(f float64) *float64 { return &f }

func located(id int64, lat, lon float64) Candidate {
	return Candidate{LocationID: id, Applicant: fmt.Sprintf("truck-%d", id), Status: "APPROVED", Latitude: ptr(lat), Longitude: ptr(lon)}
}

// matrixServer answers with body and records the destinations of every call.
func matrixServer(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("destinations"))
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestResolvePartialElements(t *testing.T) {
	srv, _ := matrixServer(t, http.StatusOK, `{"status":"OK","rows":[{"elements":[
		{"status":"OK","distance":{"value":1500,"text":"1.5 km"}},
		{"status":"NOT_FOUND"}
	]}]}`)
	r := NewResolver(distancematrix.New(srv.URL, "k", nil), nil)

	got := r.Resolve(context.Background(), "37.7,-122.4", Batch{Items: []Candidate{located(1, 37.71, -122.41), located(2, 37.72, -122.42)}})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].LocationID)
	assert.Equal(t, 1.5, got[0].DistanceKM)
}

func TestResolveSoftFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"http 500":        {http.StatusInternalServerError, `oops`},
		"service error":   {http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key","rows":[]}`},
		"undecodable":     {http.StatusOK, `{"status":`},
		"missing rows":    {http.StatusOK, `{"status":"OK"}`},
		"malformed value": {http.StatusOK, `{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":"far"}}]}]}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := matrixServer(t, tc.status, tc.body)
			r := NewResolver(distancematrix.New(srv.URL, "k", nil), nil)
			got := r.Resolve(context.Background(), "1,2", Batch{Items: []Candidate{located(1, 1, 1)}})
			assert.Empty(t, got)
		})
	}
}

func TestResolveSkipsUnlocatedCandidates(t *testing.T) {
	srv, seen := matrixServer(t, http.StatusOK, `{"status":"OK","rows":[{"elements":[
		{"status":"OK","distance":{"value":1234}},
		{"status":"OK","distance":{"value":5678}}
	]}]}`)
	r := NewResolver(distancematrix.New(srv.URL, "k", nil), nil)

	items := []Candidate{
		{LocationID: 10},
		located(11, 37.5, -122.5),
		{LocationID: 12, Latitude: ptr(37.1)},
		located(13, 37.25, -122.25),
	}
	got := r.Resolve(context.Background(), "37,-122", Batch{Offset: 50, Items: items})
	require.Len(t, got, 2)
	assert.Equal(t, int64(11), got[0].LocationID)
	assert.Equal(t, 1.23, got[0].DistanceKM)
	assert.Equal(t, 51, got[0].pos)
	assert.Equal(t, int64(13), got[1].LocationID)
	assert.Equal(t, 5.68, got[1].DistanceKM)
	assert.Equal(t, 53, got[1].pos)

	require.Len(t, *seen, 1)
	assert.Equal(t, "37.5,-122.5|37.25,-122.25", (*seen)[0])
}

func TestResolveNothingLocatedMakesNoCall(t *testing.T) {
	srv, seen := matrixServer(t, http.StatusOK, `{}`)
	r := NewResolver(distancematrix.New(srv.URL, "k", nil), nil)
	got := r.Resolve(context.Background(), "1,2", Batch{Items: []Candidate{{LocationID: 1}}})
	assert.Empty(t, got)
	assert.Empty(t, *seen)
}

// fakeMatrix answers every destination with a distance derived from its
// latitude and tracks concurrency.
type fakeMatrix struct {
	delay    time.Duration
	fail     func(dests []string) bool
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeMatrix) Matrix(ctx context.Context, origin string, dests []string) (*distancematrix.Response, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail != nil && f.fail(dests) {
		return nil, errors.New("boom")
	}
	els := make([]string, len(dests))
	for i, d := range dests {
		lat := d[:strings.IndexByte(d, ',')]
		els[i] = fmt.Sprintf(`{"status":"OK","distance":{"value":%s}}`, lat)
	}
	body := `{"status":"OK","rows":[{"elements":[` + strings.Join(els, ",") + `]}]}`
	var resp distancematrix.Response
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
