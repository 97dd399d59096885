package goldprice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPSource_FetchSpot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"price": 2001.35}]`))
	}))
	defer srv.Close()

	source := NewHTTPSource("primary", srv.URL, 5*time.Second, zap.NewNop())

	quote, err := source.FetchSpot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2001.35, quote.USDPerOunce)
}

func TestHTTPSource_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	source := NewHTTPSource("primary", srv.URL, 5*time.Second, zap.NewNop())

	_, err := source.FetchSpot(context.Background())
	require.Error(t, err)

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, FailBadStatus, srcErr.Kind)
	assert.Equal(t, "primary", srcErr.Source)
}

func TestHTTPSource_BadResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "gold is shiny"},
		{"empty array", "[]"},
		{"zero price", `[{"price": 0}]`},
		{"negative price", `[{"price": -5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			source := NewHTTPSource("primary", srv.URL, 5*time.Second, zap.NewNop())

			_, err := source.FetchSpot(context.Background())
			var srcErr *SourceError
			require.True(t, errors.As(err, &srcErr))
			assert.Equal(t, FailBadResponse, srcErr.Kind)
		})
	}
}

func TestHTTPSource_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[{"price": 2000}]`))
	}))
	defer srv.Close()

	source := NewHTTPSource("primary", srv.URL, 20*time.Millisecond, zap.NewNop())

	_, err := source.FetchSpot(context.Background())
	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, FailTimeout, srcErr.Kind)
}
