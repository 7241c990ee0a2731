package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPBlob is a Blob over a single object URL: GET downloads the database
// copy, PUT replaces it. Authentication is a bearer token.
type HTTPBlob struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPBlob creates an HTTP blob client for endpoint. A nil client gets a
// default with a 30-second timeout.
func NewHTTPBlob(endpoint, token string, client *http.Client) *HTTPBlob {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPBlob{endpoint: endpoint, token: token, client: client}
}

// Download fetches the blob contents.
func (b *HTTPBlob) Download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	b.authorize(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading blob: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading blob body: %w", err)
		}
		return data, nil
	case http.StatusNotFound:
		return nil, ErrBlobNotFound
	case http.StatusTooManyRequests:
		return nil, ErrBlobRateLimited
	default:
		return nil, fmt.Errorf("downloading blob: unexpected status %d", resp.StatusCode)
	}
}

// Upload replaces the blob contents.
func (b *HTTPBlob) Upload(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	b.authorize(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading blob: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrBlobRateLimited
	case resp.StatusCode >= 300:
		return fmt.Errorf("uploading blob: unexpected status %d", resp.StatusCode)
	default:
		return nil
	}
}

func (b *HTTPBlob) authorize(req *http.Request) {
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
}
