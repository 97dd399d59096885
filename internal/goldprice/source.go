package goldprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// FailKind classifies why a source failed, so the engine can log the cause
// while treating every kind the same way: try the next source.
type FailKind string

const (
	FailNetwork     FailKind = "network"
	FailTimeout     FailKind = "timeout"
	FailBadStatus   FailKind = "bad_status"
	FailBadResponse FailKind = "bad_response"
)

// SourceError is the typed failure returned by adapters instead of raw
// transport errors.
type SourceError struct {
	Source string
	Kind   FailKind
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("gold price source %s failed (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SpotQuote is one observation from an external feed.
type SpotQuote struct {
	// USDPerOunce is the spot price in USD per troy ounce.
	USDPerOunce float64
}

// Source fetches the latest spot price from one external feed.
type Source interface {
	Name() string
	FetchSpot(ctx context.Context) (SpotQuote, error)
}

const defaultFetchTimeout = 10 * time.Second

// HTTPSource fetches a spot quote from a metals price endpoint returning a
// JSON array of objects with a price field, e.g. [{"price": 2001.35}].
type HTTPSource struct {
	name       string
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPSource creates a spot price adapter with a bounded timeout.
// A non-positive timeout falls back to 10s.
func NewHTTPSource(name, url string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (s *HTTPSource) Name() string { return s.name }

// FetchSpot performs one HTTP GET against the configured endpoint. Non-200
// responses and malformed bodies come back as typed failures, never as raw
// transport errors.
func (s *HTTPSource) FetchSpot(ctx context.Context) (SpotQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return SpotQuote{}, &SourceError{Source: s.name, Kind: FailBadResponse, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return SpotQuote{}, &SourceError{Source: s.name, Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("gold price source returned error status",
			zap.String("source", s.name),
			zap.Int("status_code", resp.StatusCode),
		)
		return SpotQuote{}, &SourceError{
			Source: s.name,
			Kind:   FailBadStatus,
			Err:    fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var payload []struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return SpotQuote{}, &SourceError{Source: s.name, Kind: FailBadResponse, Err: err}
	}
	if len(payload) == 0 || payload[0].Price <= 0 {
		return SpotQuote{}, &SourceError{
			Source: s.name,
			Kind:   FailBadResponse,
			Err:    errors.New("missing or non-positive spot price"),
		}
	}

	return SpotQuote{USDPerOunce: payload[0].Price}, nil
}

func classifyTransport(err error) FailKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailTimeout
	}
	return FailNetwork
}
