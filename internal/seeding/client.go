package seeding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/icaoscore/internal/adapters/http/api"
)

// httpClient wraps http.Client with the service's headers.
type httpClient struct {
	client  *http.Client
	baseURL string
	key     string
}

func newHTTPClient(baseURL, trainerKey string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		key:     trainerKey,
	}
}

type response struct {
	status int
	body   []byte
}

func (c *httpClient) do(ctx context.Context, method, path, userID string, header http.Header, body any) (response, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(api.UserIDHeader, userID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read response body: %w", err)
	}
	return response{status: resp.StatusCode, body: data}, nil
}

// trainerPath appends the trainer key to path.
func (c *httpClient) trainerPath(path string) string {
	return path + "?" + api.TrainerKeyParam + "=" + url.QueryEscape(c.key)
}

func getJSON[T any](ctx context.Context, c *httpClient, path, userID string) (T, error) {
	var v T
	resp, err := c.do(ctx, http.MethodGet, path, userID, nil, nil)
	if err != nil {
		return v, err
	}
	if resp.status != http.StatusOK {
		return v, fmt.Errorf("GET %s: status %d: %s", path, resp.status, resp.body)
	}
	if err := json.Unmarshal(resp.body, &v); err != nil {
		return v, fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return v, nil
}
