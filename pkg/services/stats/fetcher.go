package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/de-tools/stats-report/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	mediaType      = "application/vnd.api+json"
	defaultTimeout = 60 * time.Second
)

// Credentials authorize requests as "<Scheme> <Token>".
type Credentials struct {
	Scheme string
	Token  string
}

func (c Credentials) header() string {
	if c.Scheme == "" {
		return c.Token
	}
	return c.Scheme + " " + c.Token
}

type Fetcher interface {
	Fetch(ctx context.Context, q domain.ReportQuery, creds Credentials) (*domain.ReportDocument, error)
}

type httpFetcher struct {
	client  *http.Client
	baseURL string
}

// NewFetcher returns a Fetcher that queries baseURL. A nil client gets a
// default one with a 60s timeout.
func NewFetcher(client *http.Client, baseURL string) (Fetcher, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("statistics base url is empty")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &httpFetcher{
		client:  client,
		baseURL: baseURL,
	}, nil
}

func (f *httpFetcher) Fetch(
	ctx context.Context,
	q domain.ReportQuery,
	creds Credentials,
) (*domain.ReportDocument, error) {
	logger := zerolog.Ctx(ctx)

	reqURL, err := BuildRequestURL(f.baseURL, q)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("url", reqURL).Msg("requesting statistics")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create statistics request: %w", err)
	}
	req.Header.Set("Authorization", creds.header())
	req.Header.Set("Accept", mediaType)
	req.Header.Set("Content-Type", mediaType)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call statistics api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp)
		logger.Error().
			Int("status", resp.StatusCode).
			Str("body", body).
			Msg("statistics api returned an error")
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: body}
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics response: %w", err)
	}

	var doc domain.ReportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: string(raw), Err: err}
	}

	logger.Info().Int("bytes", len(raw)).Msg("statistics received")
	return &doc, nil
}

// readErrorBody returns as much of an error response as can be decoded.
func readErrorBody(resp *http.Response) string {
	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return ""
	}
	defer body.Close()

	raw, _ := io.ReadAll(body)
	return string(raw)
}
