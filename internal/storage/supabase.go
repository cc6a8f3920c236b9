package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Placeholder entry Supabase creates for empty folders; never a real file.
const emptyFolderPlaceholder = ".emptyFolderPlaceholder"

// Client talks to a Supabase-compatible storage API with a service key.
type Client struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	HTTP       *http.Client
}

func NewClient(baseURL, serviceKey, bucket string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
}

type listReq struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type listEntry struct {
	Name string `json:"name"`
}

// List returns object names under prefix, placeholder entries excluded.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	body, err := json.Marshal(listReq{Prefix: prefix, Limit: 100, Offset: 0})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/storage/v1/object/list/%s", c.BaseURL, c.Bucket)
	var entries []listEntry
	if err := c.do(ctx, http.MethodPost, url, "application/json", bytes.NewReader(body), &entries); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name == emptyFolderPlaceholder {
			continue
		}
		names = append(names, e.Name)
	}
	return names, nil
}

type signReq struct {
	ExpiresIn int      `json:"expiresIn"`
	Paths     []string `json:"paths"`
}

type signEntry struct {
	Path      string `json:"path"`
	SignedURL string `json:"signedURL"`
	Error     string `json:"error"`
}

// SignedURLs resolves object paths to time-limited fetch URLs.
func (c *Client) SignedURLs(ctx context.Context, paths []string, ttl time.Duration) ([]string, error) {
	body, err := json.Marshal(signReq{ExpiresIn: int(ttl.Seconds()), Paths: paths})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/storage/v1/object/sign/%s", c.BaseURL, c.Bucket)
	var entries []signEntry
	if err := c.do(ctx, http.MethodPost, url, "application/json", bytes.NewReader(body), &entries); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Error != "" || e.SignedURL == "" {
			return nil, fmt.Errorf("storage: sign %s: %s", e.Path, e.Error)
		}
		urls = append(urls, c.BaseURL+"/storage/v1"+e.SignedURL)
	}
	return urls, nil
}

func (c *Client) Upload(ctx context.Context, path, contentType string, data []byte) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.BaseURL, c.Bucket, path)
	return c.do(ctx, http.MethodPost, url, contentType, bytes.NewReader(data), nil)
}

func (c *Client) Remove(ctx context.Context, paths []string) error {
	body, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/storage/v1/object/%s", c.BaseURL, c.Bucket)
	return c.do(ctx, http.MethodDelete, url, "application/json", bytes.NewReader(body), nil)
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body io.Reader, out any) error {
	if c.HTTP == nil {
		return errors.New("storage: http client is nil")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("storage: %s", msg)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
