package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const observationJSON = `{
  "id": "https://api.weather.gov/stations/KCEU/observations/2021-10-15T14:55:00+00:00",
  "properties": {
    "timestamp": "2021-10-15T14:55:00+00:00",
    "temperature": {"unitCode": "wmoUnit:degC", "value": 20},
    "relativeHumidity": {"unitCode": "wmoUnit:percent", "value": 65.5}
  }
}`

func newStation(t *testing.T, body string, status int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/stations/KCEU/observations/latest" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestOutdoor(t *testing.T) {
	srv, _ := newStation(t, observationJSON, http.StatusOK)
	c := NewClient(Config{BaseURL: srv.URL}, nil)

	temp, humidity, err := c.Outdoor(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 68.0, temp, 1e-9)
	assert.InDelta(t, 65.5, humidity, 1e-9)
}

func TestLatestIsCached(t *testing.T) {
	srv, hits := newStation(t, observationJSON, http.StatusOK)
	c := NewClient(Config{BaseURL: srv.URL, CacheTTL: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Latest(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestLatestCacheExpires(t *testing.T) {
	srv, hits := newStation(t, observationJSON, http.StatusOK)
	c := NewClient(Config{BaseURL: srv.URL, CacheTTL: 20 * time.Millisecond}, nil)

	_, err := c.Latest(context.Background())
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestOutdoorErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"server error", `{}`, http.StatusServiceUnavailable},
		{"bad json", `{"properties":`, http.StatusOK},
		{"null temperature", `{"properties":{"temperature":{"value":null},"relativeHumidity":{"value":50}}}`, http.StatusOK},
		{"null humidity", `{"properties":{"temperature":{"value":10},"relativeHumidity":{"value":null}}}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newStation(t, tt.body, tt.status)
			c := NewClient(Config{BaseURL: srv.URL}, nil)
			_, _, err := c.Outdoor(context.Background())
			assert.Error(t, err)
		})
	}
}
