package types

import "strings"

// Role of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Part - текст или картинка внутри сообщения.
type Part struct {
	Text  string `json:"text,omitempty"`
	Image *Image `json:"image,omitempty"`
}

// Image carries raw bytes plus MIME ("image/png", ...).
type Image struct {
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// ChatRequest is everything a backend needs for one completion.
type ChatRequest struct {
	Model           string
	Messages        []Message
	TopP            float32
	MaxTokens       int
	ReasoningEffort string // "low" | "medium" | "high" | ""
}

// TextMessage builds a single-part text message.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}

// Text concatenates the text parts of m.
func (m Message) Text() string {
	texts := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}
