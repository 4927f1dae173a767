// Package api is the REST client for the authorization service's resource
// endpoints: projects, environments, and the remote secret map.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Project is a remote project the user can scope secrets to.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Env is one environment of a project.
type Env struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Client talks to the resource API with bearer credentials attached and
// refreshed by the configured token source.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the API at baseURL, authenticating every request
// through ts.
func New(baseURL string, ts oauth2.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &oauth2.Transport{Source: ts},
		},
	}
}

// Projects lists the projects visible to the authenticated user.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := c.get(ctx, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// Environments lists the environments of a project.
func (c *Client) Environments(ctx context.Context, projectID string) ([]Env, error) {
	var out struct {
		Environments []Env `json:"environments"`
	}
	if err := c.get(ctx, "/projects/"+url.PathEscape(projectID)+"/environments", nil, &out); err != nil {
		return nil, err
	}
	return out.Environments, nil
}

// Secrets fetches the remote secret map for a project environment.
func (c *Client) Secrets(ctx context.Context, projectID, environment string) (map[string]string, error) {
	query := url.Values{
		"project":     {projectID},
		"environment": {environment},
	}
	var out struct {
		Secrets map[string]string `json:"secrets"`
	}
	if err := c.get(ctx, "/secrets", query, &out); err != nil {
		return nil, err
	}
	if out.Secrets == nil {
		out.Secrets = map[string]string{}
	}
	return out.Secrets, nil
}

// PushSecrets replaces the remote secret map for a project environment.
func (c *Client) PushSecrets(ctx context.Context, projectID, environment string, secrets map[string]string) error {
	payload := struct {
		Project     string            `json:"project"`
		Environment string            `json:"environment"`
		Secrets     map[string]string `json:"secrets"`
	}{projectID, environment, secrets}

	return c.do(ctx, http.MethodPut, "/secrets", nil, payload, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do sends one request and decodes the JSON response into out when non-nil.
// Error bodies of the shape {"message": ...} are surfaced with the status code.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
