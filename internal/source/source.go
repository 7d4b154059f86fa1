// Package source fetches dated transaction records from the configured record source.
package source

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/rewired-gh/rosterwatch/internal/config"
	"github.com/rewired-gh/rosterwatch/internal/models"
)

// ErrFetch marks a source that was unreachable or returned an unusable payload.
var ErrFetch = crerr.New("transaction fetch failed")

// Source returns the transactions dated on or after since.
type Source interface {
	Fetch(ctx context.Context, since models.Date) ([]models.TransactionRecord, error)
}

// Options tunes the HTTP-backed sources.
type Options struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	UserAgent      string
}

// DefaultPageURL is the public transactions page scraped by PageClient.
const DefaultPageURL = "https://www.mlb.com/transactions"

// OptionsFrom copies the HTTP settings out of cfg.
func OptionsFrom(cfg config.SourceConfig) Options {
	return Options{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
	}
}

// New builds the source selected by cfg.Kind.
func New(cfg config.SourceConfig) (Source, error) {
	opts := OptionsFrom(cfg)
	switch cfg.Kind {
	case "", "feed":
		return NewFeedClient(cfg.URL, opts), nil
	case "page":
		return NewPageClient(cfg.URL, opts), nil
	case "file":
		return NewFileSource(cfg.FilePath), nil
	default:
		return nil, crerr.Newf("unknown source kind %q", cfg.Kind)
	}
}

// normalizeTeam collapses runs of whitespace, line breaks included, into single spaces.
func normalizeTeam(team string) string {
	return strings.Join(strings.Fields(team), " ")
}

// httpGetter performs GET requests with linear-backoff retry on network and server errors.
type httpGetter struct {
	httpClient     *http.Client
	userAgent      string
	maxRetries     int
	retryDelayBase time.Duration
}

func newHTTPGetter(opts Options) *httpGetter {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.RetryDelayBase <= 0 {
		opts.RetryDelayBase = time.Second
	}
	return &httpGetter{
		httpClient:     &http.Client{Timeout: opts.Timeout},
		userAgent:      opts.UserAgent,
		maxRetries:     opts.MaxRetries,
		retryDelayBase: opts.RetryDelayBase,
	}
}

// get returns the response body of a 2xx reply.
func (g *httpGetter) get(ctx context.Context, urlStr, accept string) ([]byte, error) {
	var lastErr error

	for i := 0; i < g.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, crerr.Mark(ctx.Err(), ErrFetch)
			case <-time.After(g.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, crerr.Mark(crerr.Wrap(err, "building request"), ErrFetch)
		}
		req.Header.Set("Accept", accept)
		if g.userAgent != "" {
			req.Header.Set("User-Agent", g.userAgent)
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = crerr.Newf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, crerr.Mark(crerr.Newf("unexpected status %d from %s", resp.StatusCode, urlStr), ErrFetch)
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return body, nil
	}

	return nil, crerr.Mark(crerr.Wrapf(lastErr, "max retries exceeded (%d)", g.maxRetries), ErrFetch)
}
