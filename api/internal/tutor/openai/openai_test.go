package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stemmate/api/internal/tutor/types"
)

func TestEngine_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"## Final Answer: 7"}}]}`))
	}))
	defer srv.Close()

	e := New("sk-test", srv.URL+"/v1/")
	out, err := e.Complete(context.Background(), types.ChatRequest{
		Model: "openai/gpt-oss-20b",
		Messages: []types.Message{
			types.TextMessage(types.RoleSystem, "sys"),
			types.TextMessage(types.RoleUser, "2+5?"),
		},
		TopP:            0.7,
		MaxTokens:       10000,
		ReasoningEffort: "low",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "## Final Answer: 7" {
		t.Errorf("got %q", out)
	}
	if got["model"] != "openai/gpt-oss-20b" {
		t.Errorf("model = %v", got["model"])
	}
	if got["reasoning_effort"] != "low" {
		t.Errorf("reasoning_effort = %v", got["reasoning_effort"])
	}
	if got["max_tokens"].(float64) != 10000 {
		t.Errorf("max_tokens = %v", got["max_tokens"])
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if c := msgs[1].(map[string]any)["content"]; c != "2+5?" {
		t.Errorf("user content = %v", c)
	}
}

func TestEngine_CompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"http error carries status", http.StatusBadGateway, "upstream down", "openai chat 502"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "empty response"},
		{"bad json", http.StatusOK, `{`, "bad JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New("k", srv.URL).Complete(context.Background(), types.ChatRequest{Model: "m"})
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("expected error containing %q, got %v", tt.wantSub, err)
			}
		})
	}
}

func TestEngine_CompleteRequiresKey(t *testing.T) {
	if _, err := New("", "").Complete(context.Background(), types.ChatRequest{Model: "m"}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestEncodeMessagesWithImage(t *testing.T) {
	msgs := encodeMessages([]types.Message{{
		Role: types.RoleUser,
		Parts: []types.Part{
			{Text: "extract"},
			{Image: &types.Image{MIME: "image/png", Data: []byte("abc")}},
		},
	}})
	m := msgs[0].(map[string]any)
	parts, ok := m["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %#v", m["content"])
	}
	img := parts[1].(map[string]any)
	if img["type"] != "image_url" {
		t.Errorf("type = %v", img["type"])
	}
	url := img["image_url"].(map[string]any)["url"].(string)
	if url != "data:image/png;base64,YWJj" {
		t.Errorf("url = %q", url)
	}
}
