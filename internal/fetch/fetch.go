// Package fetch retrieves remote attachment content (icons, main images)
// for ingestion onto bookmark records.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marque-app/marque/internal/utils"
)

// Attachment is the fetched binary content of a remote resource.
type Attachment struct {
	Data        []byte
	ContentType string
}

// Fetcher retrieves a remote URL's content as binary data.
type Fetcher interface {
	Fetch(ctx context.Context, rawurl string) (*Attachment, error)
}

// HTTPFetcher fetches over plain HTTP with a size cap. Failures are
// terminal for the request; there are no retries.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher builds a fetcher with the given timeout and size cap.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch downloads the resource, enforcing the size cap.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawurl string) (*Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawurl, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawurl, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", rawurl, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawurl, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("attachment %s exceeds %d bytes", rawurl, f.maxBytes)
	}

	return &Attachment{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
