package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"stemmate/api/internal/tutor/types"
	"stemmate/api/internal/util"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Engine talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI, Together, vLLM, ...).
type Engine struct {
	APIKey  string
	BaseURL string
	httpc   *http.Client
}

func New(key, baseURL string) *Engine {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// рассуждающие модели долго молчат до первых заголовков
		ResponseHeaderTimeout: 180 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		// Timeout=0: дедлайн задаёт вызывающий через ctx
		httpc: &http.Client{Timeout: 0, Transport: tr},
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for tests or tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) Name() string { return "openai" }

func (e *Engine) Complete(ctx context.Context, in types.ChatRequest) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is empty")
	}
	if strings.TrimSpace(in.Model) == "" {
		return "", fmt.Errorf("openai chat: model is empty")
	}

	body := map[string]any{
		"model":    in.Model,
		"messages": encodeMessages(in.Messages),
	}
	if in.TopP > 0 {
		body["top_p"] = in.TopP
	}
	if in.MaxTokens > 0 {
		body["max_tokens"] = in.MaxTokens
	}
	if in.ReasoningEffort != "" {
		body["reasoning_effort"] = in.ReasoningEffort
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai chat: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai chat %d: %s", resp.StatusCode, util.Truncate(strings.TrimSpace(string(x)), 1024))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("openai chat: bad JSON: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty response")
	}
	return raw.Choices[0].Message.Content, nil
}

// encodeMessages: одно текстовое поле - строкой, с картинками - массивом частей.
func encodeMessages(msgs []types.Message) []any {
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		hasImage := false
		for _, p := range m.Parts {
			if p.Image != nil {
				hasImage = true
				break
			}
		}
		if !hasImage {
			out = append(out, map[string]any{"role": string(m.Role), "content": m.Text()})
			continue
		}
		parts := make([]any, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.Image != nil {
				mime := util.PickMIME(p.Image.MIME, "", p.Image.Data)
				parts = append(parts, map[string]any{
					"type":      "image_url",
					"image_url": map[string]any{"url": util.MakeDataURL(mime, p.Image.Data)},
				})
				continue
			}
			parts = append(parts, map[string]any{"type": "text", "text": p.Text})
		}
		out = append(out, map[string]any{"role": string(m.Role), "content": parts})
	}
	return out
}
