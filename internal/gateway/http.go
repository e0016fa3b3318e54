package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxBodyBytes = 8 << 20

// HTTP fetches content from a static host.
type HTTP struct {
	baseURL string
	http    *http.Client
}

// NewHTTP constructs a gateway for baseURL. A zero timeout means 5s.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTP{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchJSON implements Gateway.
func (g *HTTP) FetchJSON(ctx context.Context, path string, v any) error {
	data, err := g.get(ctx, path, "application/json")
	if err != nil {
		return err
	}
	return decode(path, data, v)
}

// FetchText implements Gateway.
func (g *HTTP) FetchText(ctx context.Context, path string) (string, error) {
	data, err := g.get(ctx, path, "text/plain")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *HTTP) get(ctx context.Context, path, accept string) ([]byte, error) {
	endpoint, err := url.JoinPath(g.baseURL, strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, &FetchError{Path: path, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Path: path, Err: err}
	}
	req.Header.Set("Accept", accept)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, &FetchError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{Path: path, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Path: path, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, nil
}
