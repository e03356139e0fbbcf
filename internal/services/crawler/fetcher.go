// -----------------------------------------------------------------------
// Fetcher - browser-identity HTTP GET with charset detection
// -----------------------------------------------------------------------

package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/time/rate"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/httpclient"
)

// FetchResult is a decoded page
type FetchResult struct {
	URL        string // Final URL after redirects
	HTML       string
	Encoding   string
	StatusCode int
	Duration   time.Duration
}

// PageFetcher retrieves and decodes a page
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*FetchResult, error)
}

// Fetcher sends a desktop-browser GET and decodes the body to UTF-8
type Fetcher struct {
	client           *http.Client
	userAgent        string
	maxBodySize      int64
	fallbackEncoding string
	limiter          *rate.Limiter // nil when uncapped
	logger           arbor.ILogger
}

// NewFetcher creates a fetcher from crawler configuration. A nil client gets a
// cookie-aware client with the configured timeout (20s by default).
func NewFetcher(client *http.Client, config *common.CrawlerConfig, logger arbor.ILogger) *Fetcher {
	if client == nil {
		timeout := common.ParseDuration(config.RequestTimeout, 20*time.Second)
		c, err := httpclient.NewBrowserHTTPClient(timeout)
		if err != nil {
			logger.Warn().Err(err).Msg("Falling back to HTTP client without cookie jar")
			c = httpclient.NewDefaultHTTPClient(timeout)
		}
		client = c
	}

	maxBodySize := config.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = 10 * 1024 * 1024
	}

	var limiter *rate.Limiter
	if config.MaxRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.MaxRequestsPerSecond), 1)
	}

	return &Fetcher{
		client:           client,
		userAgent:        config.UserAgent,
		maxBodySize:      maxBodySize,
		fallbackEncoding: config.FallbackEncoding,
		limiter:          limiter,
		logger:           logger,
	}
}

// Fetch retrieves pageURL. Any failure is returned as *FetchError.
// Requests across all hosts are capped at MaxRequestsPerSecond.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: pageURL, Kind: FailureTimeout, Err: err}
		}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "he-IL,he;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: pageURL, Kind: FailureHTTPStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: classifyTransportError(err), Err: err}
	}
	if int64(len(body)) > f.maxBodySize {
		f.logger.Warn().
			Str("url", pageURL).
			Int64("max_body_size", f.maxBodySize).
			Msg("Response body truncated")
		body = body[:f.maxBodySize]
	}

	text, encodingName, err := f.decode(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: FailureNetwork, Err: err}
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	duration := time.Since(start)
	f.logger.Debug().
		Str("url", finalURL).
		Int("status", resp.StatusCode).
		Str("encoding", encodingName).
		Int("bytes", len(body)).
		Dur("duration", duration).
		Msg("Fetched page")

	return &FetchResult{
		URL:        finalURL,
		HTML:       text,
		Encoding:   encodingName,
		StatusCode: resp.StatusCode,
		Duration:   duration,
	}, nil
}

// decode converts body to UTF-8. Detection order: the bytes themselves (valid
// UTF-8 or BOM), in-document <meta> declaration, Content-Type header, then the
// configured fallback. Headers come late because forum pages are often mis-declared.
func (f *Fetcher) decode(body []byte, contentType string) (string, string, error) {
	if utf8.Valid(body) {
		return string(body), "utf-8", nil
	}

	enc, name, certain := charset.DetermineEncoding(body, "")
	if !certain && name == "windows-1252" {
		enc, name = nil, ""
		if label := charsetFromContentType(contentType); label != "" {
			enc, name = charset.Lookup(label)
		}
		if enc == nil && f.fallbackEncoding != "" {
			enc, name = charset.Lookup(f.fallbackEncoding)
		}
		if enc == nil {
			enc, name = charset.Lookup("windows-1252")
		}
	}

	decoded, err := decodeWith(enc, body)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return decoded, name, nil
}

func decodeWith(enc encoding.Encoding, body []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

func classifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureNetwork
}
