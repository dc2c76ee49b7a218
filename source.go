package beatgrid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// Fetcher retrieves encoded audio bytes from a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FileFetcher reads audio from the local filesystem.
type FileFetcher struct{}

// Fetch reads the file at location.
func (FileFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	data, err := os.ReadFile(location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return data, nil
}

// HTTPFetcher downloads audio over HTTP(S).
type HTTPFetcher struct {
	// Client performs requests. Nil selects http.DefaultClient.
	Client *http.Client

	// MaxBytes limits the response body size. Zero means no limit.
	MaxBytes int64
}

// Fetch issues a GET request for location. A 404 reports ErrNotFound; any
// other non-2xx status reports ErrRetrieval.
func (f HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s: %s", ErrRetrieval, location, resp.Status)
	}

	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrRetrieval, location, f.MaxBytes)
	}
	return data, nil
}

// AutoFetcher dispatches http:// and https:// locations to HTTP and
// everything else to File.
type AutoFetcher struct {
	HTTP HTTPFetcher
	File FileFetcher
}

// Fetch retrieves location with the matching fetcher.
func (f AutoFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if isRemote(location) {
		return f.HTTP.Fetch(ctx, location)
	}
	return f.File.Fetch(ctx, location)
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
