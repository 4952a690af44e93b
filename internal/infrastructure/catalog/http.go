package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/incilens/backend/internal/domain"
)

const (
	maxAttempts      = 3
	maxErrorBodySize = 1024
	maxCatalogSize   = 32 << 20
)

// errNotFound marks an endpoint the server does not expose
var errNotFound = errors.New("not found")

// HTTPSource fetches the catalog from a remote export service.
// Records use the legacy document layout (see LegacyDocument).
type HTTPSource struct {
	httpClient  *http.Client
	baseURL     string
	apiToken    string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
	debug       bool
}

// NewHTTPSource creates a new catalog client
func NewHTTPSource(baseURL, apiToken string, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPSource{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		apiToken:    apiToken,
		rateLimiter: rate.NewLimiter(rate.Limit(2), 4),
		backoff:     exponentialBackoff,
		logger:      logger.Named("catalog_http"),
	}
}

// SetDebug enables per-request logging
func (s *HTTPSource) SetDebug(debug bool) {
	s.debug = debug
}

// Name identifies the source for stats and logs
func (s *HTTPSource) Name() string {
	u, err := url.Parse(s.baseURL)
	if err != nil || u.Host == "" {
		return "http"
	}
	return "http:" + u.Host
}

// LoadComplexes fetches {base}/complexes
func (s *HTTPSource) LoadComplexes(ctx context.Context) ([]domain.RawComplex, error) {
	var docs []LegacyDocument
	if err := s.getJSON(ctx, "/complexes", &docs); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrKnowledgeBase, err)
	}
	s.debugLog("fetched complexes", zap.Int("count", len(docs)))
	return MapToRawComplexes(docs), nil
}

// LoadGenerics fetches {base}/generics; a missing endpoint yields an empty table
func (s *HTTPSource) LoadGenerics(ctx context.Context) ([]domain.GenericIngredient, error) {
	var docs []LegacyINCIDocument
	if err := s.getJSON(ctx, "/generics", &docs); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrKnowledgeBase, err)
	}
	return MapToGenerics(docs), nil
}

// getJSON performs a GET with retries on transport errors, 429 and 5xx
func (s *HTTPSource) getJSON(ctx context.Context, path string, v any) error {
	reqURL := s.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff(attempt - 1)):
			}
		}

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := s.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.logger.Warn("catalog request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := readLimitedBody(resp.Body, maxErrorBodySize)
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return fmt.Errorf("%s: %w", path, errNotFound)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				s.logger.Warn("catalog server error",
					zap.Int("attempt", attempt),
					zap.Int("status", resp.StatusCode),
					zap.ByteString("body", body))
				lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogSourceFailure, resp.StatusCode)
				continue
			default:
				return fmt.Errorf("%w: status %d: %s", domain.ErrCatalogSourceFailure, resp.StatusCode, body)
			}
		}

		err = json.NewDecoder(io.LimitReader(resp.Body, maxCatalogSize)).Decode(v)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	s.logger.Error("all catalog retries failed", zap.String("path", path), zap.Error(lastErr))
	return lastErr
}

// doRequest executes an HTTP GET request with proper headers
func (s *HTTPSource) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "INCILens/1.0")
	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogSourceFailure, err)
	}
	return resp, nil
}

func (s *HTTPSource) debugLog(msg string, fields ...zap.Field) {
	if s.debug {
		s.logger.Debug(msg, fields...)
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
