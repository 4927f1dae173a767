package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// mockTransport captures the last request and returns a canned response.
type mockTransport struct {
	capturedRequest *http.Request
	responseBody    string
	responseStatus  int
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.capturedRequest = req
	return &http.Response{
		StatusCode: m.responseStatus,
		Body:       io.NopCloser(strings.NewReader(m.responseBody)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Request:    req,
	}, nil
}

func newTestClient(transport *mockTransport) *Client {
	c := New("https://api.test/v1", oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "at-123"}))
	// Rewire the oauth2 transport's base so no real connection is made.
	c.http.Transport.(*oauth2.Transport).Base = transport
	return c
}

func TestSecretsRequestShape(t *testing.T) {
	transport := &mockTransport{
		responseStatus: 200,
		responseBody:   `{"secrets": {"DATABASE_URL": "postgres://remote/app"}}`,
	}
	c := newTestClient(transport)

	secrets, err := c.Secrets(context.Background(), "proj-1", "production")
	if err != nil {
		t.Fatal(err)
	}
	if secrets["DATABASE_URL"] != "postgres://remote/app" {
		t.Errorf("secrets = %v", secrets)
	}

	req := transport.capturedRequest
	if got := req.Header.Get("Authorization"); got != "Bearer at-123" {
		t.Errorf("Authorization = %q", got)
	}
	if req.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
	query := req.URL.Query()
	if query.Get("project") != "proj-1" || query.Get("environment") != "production" {
		t.Errorf("query = %v", query)
	}
}

func TestSecretsEmptyResponse(t *testing.T) {
	c := newTestClient(&mockTransport{responseStatus: 200, responseBody: `{}`})
	secrets, err := c.Secrets(context.Background(), "proj-1", "development")
	if err != nil {
		t.Fatal(err)
	}
	if secrets == nil || len(secrets) != 0 {
		t.Errorf("secrets = %v, want empty non-nil map", secrets)
	}
}

func TestErrorBodySurfaced(t *testing.T) {
	c := newTestClient(&mockTransport{
		responseStatus: 404,
		responseBody:   `{"message": "project not found"}`,
	})

	_, err := c.Projects(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "project not found") || !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want message and status", err)
	}
}

func TestProjects(t *testing.T) {
	c := newTestClient(&mockTransport{
		responseStatus: 200,
		responseBody:   `{"projects": [{"id": "p1", "name": "backend"}, {"id": "p2", "name": "frontend"}]}`,
	})

	projects, err := c.Projects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0].ID != "p1" || projects[1].Name != "frontend" {
		t.Errorf("projects = %+v", projects)
	}
}
