package cerebras

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func TestGeneratePlan_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var req completionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.3-70b", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "a todo app", req.Messages[1].Content)
		}

		_, _ = w.Write([]byte(completion(`{"analysis":"todo app","questions":[{"id":"q1","question":"DB?","options":["Postgres","SQLite"]},{"question":"Auth?","options":["JWT"]}]}`)))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key-1", Model: "llama-3.3-70b"})
	plan, err := c.GeneratePlan(context.Background(), "a todo app")
	require.NoError(t, err)
	assert.Equal(t, "todo app", plan.Analysis)
	require.Len(t, plan.Questions, 2)
	assert.Equal(t, "q2", plan.Questions[1].ID)
}

func TestGeneratePlan_MissingKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"})
	_, err := c.GeneratePlan(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGeneratePlan_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "upstream error", status: http.StatusTooManyRequests, body: `{}`, wantErr: "unexpected status 429"},
		{name: "not json", status: http.StatusOK, body: `oops`, wantErr: "decode completion"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no choices"},
		{name: "content not json", status: http.StatusOK, body: completion("sure! here are questions"), wantErr: "decode plan"},
		{name: "no questions", status: http.StatusOK, body: completion(`{"analysis":"x","questions":[]}`), wantErr: "no questions"},
		{name: "question without options", status: http.StatusOK, body: completion(`{"analysis":"x","questions":[{"id":"q1","question":"?","options":[]}]}`), wantErr: "incomplete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
			_, err := c.GeneratePlan(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
