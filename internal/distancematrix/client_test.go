package distancematrix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby-api/internal/metrics"
)

func TestMatrixRequestShape(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"origins":      q.Get("origins"),
			"destinations": q.Get("destinations"),
			"key":          q.Get("key"),
			"units":        q.Get("units"),
		}
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":1500,"text":"1.5 km"}},{"status":"NOT_FOUND"}]}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", nil)
	resp, err := c.Matrix(context.Background(), "37.7749,-122.4194", []string{"37.78,-122.41", "37.79,-122.4"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"origins":      "37.7749,-122.4194",
		"destinations": "37.78,-122.41|37.79,-122.4",
		"key":          "secret",
		"units":        "metric",
	}, got)
	require.Len(t, resp.Elements(), 2)

	m, ok := DecodeElement(resp.Elements()[0])
	assert.True(t, ok)
	assert.Equal(t, 1500.0, m)
	_, ok = DecodeElement(resp.Elements()[1])
	assert.False(t, ok)
}

func TestMatrixErrors(t *testing.T) {
	status := http.StatusOK
	body := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	c := New(srv.URL, "k", nil)

	status, body = http.StatusInternalServerError, "nope"
	_, err := c.Matrix(context.Background(), "1,2", []string{"3,4"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)

	status, body = http.StatusOK, `{"status":"OVER_QUERY_LIMIT","error_message":"slow down"}`
	resp, err := c.Matrix(context.Background(), "1,2", []string{"3,4"})
	assert.ErrorIs(t, err, ErrNotOK)
	require.NotNil(t, resp)
	assert.Equal(t, "OVER_QUERY_LIMIT", resp.Status)

	status, body = http.StatusOK, `<html>`
	_, err = c.Matrix(context.Background(), "1,2", []string{"3,4"})
	assert.Error(t, err)
}

func TestMatrixRequiresKey(t *testing.T) {
	_, err := New("", "", nil).Matrix(context.Background(), "1,2", []string{"3,4"})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestMatrixHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, "k", nil).Matrix(ctx, "1,2", []string{"3,4"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeElement(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`{"status":"OK","distance":{"value":2500}}`, 2500, true},
		{`{"status":"OK","distance":{"value":0}}`, 0, true},
		{`{"status":"OK"}`, 0, false},
		{`{"status":"OK","distance":{}}`, 0, false},
		{`{"status":"OK","distance":{"value":-1}}`, 0, false},
		{`{"status":"ZERO_RESULTS"}`, 0, false},
		{`{"status":"OK","distance":{"value":"x"}}`, 0, false},
		{`[]`, 0, false},
	}
	for _, tc := range cases {
		got, ok := DecodeElement(json.RawMessage(tc.raw))
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestElementsOnEmptyResponse(t *testing.T) {
	var r *Response
	assert.Nil(t, r.Elements())
	assert.Nil(t, (&Response{Status: "OK"}).Elements())
}

func observedDurations(t *testing.T) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.DistanceDurationMs.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestMatrixObservesDurationOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	before := observedDurations(t)
	_, err := New(url, "k", nil).Matrix(context.Background(), "1,2", []string{"3,4"})
	require.Error(t, err)
	assert.Equal(t, before+1, observedDurations(t))
}
