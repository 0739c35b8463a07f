package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/config"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// SpecFetcher retrieves remote specification documents over HTTP. It
// classifies failures into the network/timeout/HTTP taxonomy and never
// retries internally: retry policy belongs to the orchestrator.
type SpecFetcher struct {
	httpClient *http.Client
	cfg        *config.FetcherConfig
	logger     zerolog.Logger
}

// FetchResult holds a fetched document together with its raw payload.
type FetchResult struct {
	Document    models.SpecDocument
	Body        []byte
	ContentType string
	StatusCode  int
}

// NewSpecFetcher creates a SpecFetcher with a dedicated transport.
func NewSpecFetcher(cfg *config.FetcherConfig, logger zerolog.Logger) (*SpecFetcher, error) {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DialContext: (&net.Dialer{
			Timeout: cfg.DialTimeout,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	fetcherLogger := logger.With().Str("component", "SpecFetcher").Logger()

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			fetcherLogger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	return &SpecFetcher{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		cfg:    cfg,
		logger: fetcherLogger,
	}, nil
}

// Fetch retrieves and parses the specification document at url.
// Failure modes: *common.NetworkError (unreachable/DNS/refused),
// *common.TimeoutError (timeout budget exceeded), *common.HTTPError
// (4xx/5xx response), *common.InvalidSpecError (unparseable body).
func (f *SpecFetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, common.WrapError(err, fmt.Sprintf("creating request for %s", url))
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, f.classifyTransportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		f.logger.Warn().Str("url", url).Int("status_code", resp.StatusCode).Msg("Received non-OK HTTP status")
		return nil, common.NewHTTPError(resp.StatusCode, string(bodyBytes), url)
	}

	if resp.ContentLength > 0 && resp.ContentLength > int64(f.cfg.MaxContentSize) {
		return nil, common.NewInvalidSpecError(url, fmt.Sprintf("content too large: %d bytes (max: %d bytes)", resp.ContentLength, f.cfg.MaxContentSize))
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.cfg.MaxContentSize)+1))
	if err != nil {
		return nil, f.classifyTransportError(url, err)
	}
	if len(bodyBytes) > f.cfg.MaxContentSize {
		return nil, common.NewInvalidSpecError(url, fmt.Sprintf("content too large: %d bytes (max: %d bytes)", len(bodyBytes), f.cfg.MaxContentSize))
	}

	doc, err := models.ParseSpecDocument(bodyBytes)
	if err != nil {
		return nil, common.NewInvalidSpecError(url, "response body is not a JSON document")
	}

	f.logger.Debug().
		Str("url", url).
		Int("size", len(bodyBytes)).
		Str("version", doc.Version()).
		Msg("Specification document fetched")

	return &FetchResult{
		Document:    doc,
		Body:        bodyBytes,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

// classifyTransportError separates timeout failures from other transport
// failures so the orchestrator can report them distinctly.
func (f *SpecFetcher) classifyTransportError(url string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		f.logger.Warn().Str("url", url).Dur("timeout", f.cfg.Timeout).Msg("Fetch timed out")
		return common.NewTimeoutError(url, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewTimeoutError(url, err)
	}
	f.logger.Warn().Err(err).Str("url", url).Msg("Fetch failed at transport level")
	return common.NewNetworkError(url, "HTTP request failed", err)
}
