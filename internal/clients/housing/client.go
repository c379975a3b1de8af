// Package housing is the HTTP client for the remote housing service,
// implementing the same directory contract as the local stores.
package housing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	dErrors "resportal/pkg/domain-errors"
	"resportal/pkg/sentinel"

	"resportal/internal/housing/models"
)

const defaultTimeout = 15 * time.Second

// Client talks to the upstream housing service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("housing service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return dErrors.New(dErrors.CodeUnauthorized, "not permitted by the housing service")
	case resp.StatusCode >= 300:
		return fmt.Errorf("housing service returned %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) CurrentApplicationID(ctx context.Context, username string) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	path := "/applications/current?username=" + url.QueryEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) Application(ctx context.Context, id int64) (models.ApplicationDetails, error) {
	var out models.ApplicationDetails
	if err := c.do(ctx, http.MethodGet, "/applications/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return models.ApplicationDetails{}, err
	}
	return out, nil
}

func (c *Client) SaveApplication(ctx context.Context, details models.ApplicationDetails) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/applications", details, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) SubmitApplication(ctx context.Context, id int64) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	path := "/applications/" + strconv.FormatInt(id, 10) + "/submit"
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

func (c *Client) DeleteApplication(ctx context.Context, id int64) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodDelete, "/applications/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

// ChangeEditor hits the legacy dedicated editor-change endpoint, kept as the
// fallback path for editor transfers.
func (c *Client) ChangeEditor(ctx context.Context, id int64, username string) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	body := map[string]string{"username": username}
	path := "/applications/" + strconv.FormatInt(id, 10) + "/editor"
	if err := c.do(ctx, http.MethodPut, path, body, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

func (c *Client) AvailableHalls(ctx context.Context, editorUsername string) ([]string, error) {
	var out struct {
		Halls []string `json:"halls"`
	}
	path := "/halls?editor=" + url.QueryEscape(editorUsername)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Halls, nil
}
