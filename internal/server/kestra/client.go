// Package kestra is a client for the workflow engine's execution API.
// Flows run synchronously: the server holds the request until the execution
// finishes and answers with its final state and outputs.
package kestra

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
	"sort"
	"strings"
)

var (
	// ErrNotConfigured is returned when credentials are missing.
	ErrNotConfigured = errors.New("Missing Env Vars")
	// ErrTransport wraps failures to reach the engine or read its answer.
	ErrTransport = errors.New("kestra transport error")
)

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "Kestra failed: " + e.Status
}

// Retryable reports whether the status points at a gateway or availability
// problem rather than a rejected request.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusBadGateway || e.Code == http.StatusServiceUnavailable || e.Code == http.StatusGatewayTimeout
}

// Execution is the subset of an execution document the server reads.
type Execution struct {
	ID    string `json:"id"`
	State struct {
		Current string `json:"current"`
	} `json:"state"`
	Outputs map[string]any `json:"outputs"`
}

// Output returns a non-empty output value rendered as a string.
func (e *Execution) Output(key string) (string, bool) {
	v, ok := e.Outputs[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Failed reports whether the execution ended in a terminal failure state.
func (e *Execution) Failed() bool {
	switch e.State.Current {
	case "FAILED", "KILLED", "CANCELLED":
		return true
	}
	return false
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Username  string
	Password  string
	Namespace string
	// HTTPClient defaults to a client without timeout; waits are bounded by
	// the caller's context only.
	HTTPClient *http.Client
}

type Client struct {
	baseURL   string
	username  string
	password  string
	namespace string
	http      *http.Client
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		username:  cfg.Username,
		password:  cfg.Password,
		namespace: cfg.Namespace,
		http:      hc,
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.username != "" && c.password != ""
}

// Execute runs flowID in the configured namespace with the given inputs and
// waits for it to finish.
func (c *Client) Execute(ctx context.Context, flowID string, inputs map[string]string) (*Execution, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, contentType, err := encodeInputs(inputs)
	if err != nil {
		return nil, fmt.Errorf("encode inputs: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/executions/%s/%s?wait=true",
		c.baseURL, url.PathEscape(c.namespace), url.PathEscape(flowID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	var exec Execution
	if err := json.NewDecoder(resp.Body).Decode(&exec); err != nil {
		return nil, fmt.Errorf("decode execution: %w", err)
	}
	return &exec, nil
}

func encodeInputs(inputs map[string]string) (io.Reader, string, error) {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, k := range keys {
		if err := w.WriteField(k, inputs[k]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
