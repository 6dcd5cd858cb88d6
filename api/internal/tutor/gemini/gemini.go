package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"stemmate/api/internal/tutor/types"
	"stemmate/api/internal/util"
)

// Engine serves gemini-* model ids through the Generative Language SDK.
type Engine struct {
	APIKey string

	opts []option.ClientOption // доп. опции клиента (эндпоинт, http-клиент)
}

func New(apiKey string) *Engine {
	return &Engine{APIKey: strings.TrimSpace(apiKey)}
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Complete(ctx context.Context, in types.ChatRequest) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)...)
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(in.Model))
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = generationConfig(in)

	system, parts := splitMessages(in.Messages)
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("gemini: empty prompt")
	}

	// один вызов: ошибка бэкенда сразу уходит вызывающему
	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	txt := allText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return util.StripCodeFences(txt), nil
}

func generationConfig(in types.ChatRequest) genai.GenerationConfig {
	var gc genai.GenerationConfig
	if in.TopP > 0 {
		gc.TopP = ptrFloat32(in.TopP)
	}
	if in.MaxTokens > 0 {
		n := int32(in.MaxTokens)
		gc.MaxOutputTokens = &n
	}
	return gc
}

// splitMessages: system-сообщения уходят в SystemInstruction, остальное - в parts.
func splitMessages(msgs []types.Message) (system, parts []genai.Part) {
	for _, m := range msgs {
		for _, p := range m.Parts {
			var part genai.Part
			switch {
			case p.Image != nil:
				part = genai.Blob{
					MIMEType: util.PickMIME(p.Image.MIME, "", p.Image.Data),
					Data:     p.Image.Data,
				}
			case p.Text != "":
				part = genai.Text(p.Text)
			default:
				continue
			}
			if m.Role == types.RoleSystem {
				system = append(system, part)
			} else {
				parts = append(parts, part)
			}
		}
	}
	return system, parts
}

func allText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		// первый кандидат с контентом
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

func ptrFloat32(v float32) *float32 { return &v }
