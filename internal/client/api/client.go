// Package api is a small client for the ideforge REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/ideforge/internal/server/models"
)

// ErrUnavailable means the server could not be reached.
var ErrUnavailable = errors.New("server unavailable")

// Error is a non-2xx response carrying the server's {error} message.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.StatusCode == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL. hc may be nil.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

// AuthResponse is returned by Signup and Login.
type AuthResponse struct {
	Success bool              `json:"success"`
	User    models.PublicUser `json:"user"`
	Token   string            `json:"token"`
}

func (c *Client) Signup(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", credentials{email, password}, &out)
	return &out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{email, password}, &out)
	return &out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*models.PublicUser, error) {
	var out struct {
		User models.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]*models.Project, error) {
	var out struct {
		Projects []*models.Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *Client) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	in := map[string]string{"name": name, "description": description}
	return c.project(ctx, http.MethodPost, "/api/projects", in)
}

func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return c.project(ctx, http.MethodGet, projectPath(id), nil)
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	return c.project(ctx, http.MethodPatch, projectPath(id), patch)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

func (c *Client) ProvisionProject(ctx context.Context, id, prompt string) (*models.ProvisionResult, error) {
	var out models.ProvisionResult
	err := c.do(ctx, http.MethodPost, projectPath(id)+"/provision", map[string]string{"prompt": prompt}, &out)
	return &out, err
}

func (c *Client) TerminateProject(ctx context.Context, id string) (*models.TerminationResult, error) {
	var out models.TerminationResult
	err := c.do(ctx, http.MethodPost, projectPath(id)+"/terminate", nil, &out)
	return &out, err
}

func (c *Client) SyncProjects(ctx context.Context) (*models.SyncResult, error) {
	var out models.SyncResult
	err := c.do(ctx, http.MethodPost, "/api/projects/sync", nil, &out)
	return &out, err
}

func (c *Client) RunFlow(ctx context.Context, message string) (*models.FlowResult, error) {
	var out models.FlowResult
	err := c.do(ctx, http.MethodPost, "/api/flows/run", map[string]string{"message": message}, &out)
	return &out, err
}

func (c *Client) Plan(ctx context.Context, prompt string) (*models.Plan, error) {
	var out models.Plan
	err := c.do(ctx, http.MethodPost, "/api/plan", map[string]string{"prompt": prompt}, &out)
	return &out, err
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func projectPath(id string) string {
	return "/api/projects/" + url.PathEscape(id)
}

func (c *Client) project(ctx context.Context, method, path string, in any) (*models.Project, error) {
	var out struct {
		Project *models.Project `json:"project"`
	}
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return out.Project, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &Error{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
