// Package cerebras calls an OpenAI-compatible chat completion endpoint to
// turn a project description into clarifying questions.
package cerebras

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

	"github.com/dmitrijs2005/ideforge/internal/server/models"
)

// ErrMissingAPIKey is returned when no key is configured.
var ErrMissingAPIKey = errors.New("Missing API Key")

const systemPrompt = `You are a Senior Software Architect. The user wants to build a project.
Identify ambiguous technical details and ask 3 multiple-choice questions to clarify.

Return a STRICT JSON object:
{
  "analysis": "Brief summary of the request (max 15 words)",
  "questions": [
    {
      "id": "q1",
      "question": "Which database do you prefer?",
      "options": ["Option A", "Option B"]
    }
  ]
}`

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    hc,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model          string    `json:"model"`
	Messages       []message `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// GeneratePlan asks the model for an analysis of prompt and a set of
// multiple-choice questions.
func (c *Client) GeneratePlan(ctx context.Context, prompt string) (*models.Plan, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqBody := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	buf, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("completion request: unexpected status %d", resp.StatusCode)
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New("completion has no choices")
	}

	return parsePlan(cr.Choices[0].Message.Content)
}

func parsePlan(content string) (*models.Plan, error) {
	var plan models.Plan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if len(plan.Questions) == 0 {
		return nil, errors.New("plan has no questions")
	}
	for i, q := range plan.Questions {
		if q.Question == "" || len(q.Options) == 0 {
			return nil, fmt.Errorf("plan question %d is incomplete", i)
		}
		if q.ID == "" {
			plan.Questions[i].ID = fmt.Sprintf("q%d", i+1)
		}
	}
	return &plan, nil
}
