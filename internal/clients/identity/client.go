// Package identity is the HTTP client for the campus identity service.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	dErrors "resportal/pkg/domain-errors"
	"resportal/pkg/sentinel"

	"resportal/internal/housing/models"
)

const defaultTimeout = 10 * time.Second

// Client resolves usernames to profiles over HTTP.
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

// Profile fetches the profile for username. A missing user maps to
// sentinel.ErrNotFound; 401/403 map to an unauthorized domain error.
func (c *Client) Profile(ctx context.Context, username string) (models.Profile, error) {
	endpoint := c.baseURL + "/profiles/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Profile{}, fmt.Errorf("build profile request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Profile{}, fmt.Errorf("identity service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return models.Profile{}, sentinel.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.Profile{}, dErrors.New(dErrors.CodeUnauthorized,
			"not permitted to look up profiles")
	default:
		return models.Profile{}, fmt.Errorf("identity service returned %s", resp.Status)
	}

	var profile models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return models.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}
