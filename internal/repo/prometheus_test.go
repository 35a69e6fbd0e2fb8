package repo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantQueryBody(value string) string {
	return fmt.Sprintf(`{"status":"success","data":{"result":[{"value":[1700000000,%q]}]}}`, value)
}

func TestQueryParsesScalar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/query", r.URL.Path)
		require.Equal(t, `rate(process_cpu_seconds_total[1m])`, r.URL.Query().Get("query"))
		fmt.Fprint(w, instantQueryBody("0.6123"))
	}))
	defer srv.Close()

	client := NewPrometheusClient(srv.URL, time.Second, nil)
	sample := client.Query(context.Background(), `rate(process_cpu_seconds_total[1m])`)

	require.False(t, sample.Missing())
	assert.InDelta(t, 0.6123, sample.Scalar(), 1e-9)
}

func TestQueryEmptyResultReadsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"result":[]}}`)
	}))
	defer srv.Close()

	client := NewPrometheusClient(srv.URL, time.Second, nil)
	sample := client.Query(context.Background(), "up")

	require.False(t, sample.Missing())
	assert.Zero(t, sample.Scalar())
}

func TestQueryNaNNormalizesToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, instantQueryBody("NaN"))
	}))
	defer srv.Close()

	client := NewPrometheusClient(srv.URL, time.Second, nil)
	sample := client.Query(context.Background(), "latency")

	require.False(t, sample.Missing())
	assert.Zero(t, sample.Scalar())
}

func TestQueryUnreachableStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewPrometheusClient(srv.URL, time.Second, nil)
	sample := client.Query(context.Background(), "up")

	assert.True(t, sample.Missing())
}

func TestQueryNon2xxIsMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewPrometheusClient(srv.URL, time.Second, nil)
	sample := client.Query(context.Background(), "up")

	assert.True(t, sample.Missing())
}

func TestQueryMalformedEnvelopeIsMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"error"}`)
	}))
	defer srv.Close()

	client := NewPrometheusClient(srv.URL, time.Second, nil)
	sample := client.Query(context.Background(), "up")

	assert.True(t, sample.Missing())
}
