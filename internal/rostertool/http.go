package rostertool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/recruitstat/internal/domain/types"
)

// ErrStatus is returned for any non-2xx server answer.
var ErrStatus = errors.New("unexpected response status")

// Client talks to a running recruitstat server.
type Client struct {
	base   string
	client *http.Client
	token  string
}

// NewClient creates a client with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Token returns the bearer token obtained by Login.
func (c *Client) Token() string { return c.token }

// Health checks the liveness probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
	if err != nil {
		return err
	}
	_, err = c.do(req, nil)
	return err
}

// Login exchanges the shared password for a session token.
func (c *Client) Login(ctx context.Context, password string) error {
	form := url.Values{"password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var out struct {
		Token string `json:"token"`
	}
	if _, err := c.do(req, &out); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.token = out.Token
	return nil
}

// Upload posts a roster file.
func (c *Client) Upload(ctx context.Context, filename string, content []byte, description string) (types.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return types.UploadResponse{}, err
	}
	if _, err := fw.Write(content); err != nil {
		return types.UploadResponse{}, err
	}
	if err := mw.WriteField("description", description); err != nil {
		return types.UploadResponse{}, err
	}
	if err := mw.Close(); err != nil {
		return types.UploadResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/upload", &body)
	if err != nil {
		return types.UploadResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out types.UploadResponse
	if _, err := c.do(req, &out); err != nil {
		return types.UploadResponse{}, fmt.Errorf("upload: %w", err)
	}
	return out, nil
}

// Statistics fetches the snapshot of the current dataset.
func (c *Client) Statistics(ctx context.Context) (types.StatisticsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/statistics", nil)
	if err != nil {
		return types.StatisticsResponse{}, err
	}
	var out types.StatisticsResponse
	if _, err := c.do(req, &out); err != nil {
		return types.StatisticsResponse{}, fmt.Errorf("statistics: %w", err)
	}
	return out, nil
}

// do sends req with the session token and decodes a JSON answer into out
// when out is non-nil.
func (c *Client) do(req *http.Request, out any) (int, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(data, &e)
		return resp.StatusCode, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, e.Detail)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
