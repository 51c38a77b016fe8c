package adapters

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	mediaFetchTimeout = 30 * time.Second
	maxMediaBytes     = 16 << 20
)

// HTTPMediaResolver resolves media references. http(s) URLs are fetched,
// base64: references are decoded inline.
type HTTPMediaResolver struct {
	client *http.Client
}

func NewHTTPMediaResolver() *HTTPMediaResolver {
	return &HTTPMediaResolver{client: &http.Client{Timeout: mediaFetchTimeout}}
}

func (r *HTTPMediaResolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "base64:"):
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref, "base64:"))
		if err != nil {
			return nil, fmt.Errorf("decode inline media: %w", err)
		}

		return data, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.fetch(ctx, ref)
	default:
		return nil, fmt.Errorf("unsupported media reference: %s", ref)
	}
}

func (r *HTTPMediaResolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("media fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("read media body: %w", err)
	}

	return data, nil
}
