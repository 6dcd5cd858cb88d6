package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stemmate/api/internal/pipeline"
	"stemmate/api/internal/tutor/types"
)

// Telegram rejects messages longer than this (in UTF-16 units; runes are
// close enough for the text we send).
const maxMessageLen = 4096

const (
	cbStyle   = "style:"
	cbPersona = "persona:"
)

// labelKeyboard renders one button per label; callback data carries the
// index since labels may exceed the 64-byte limit.
func labelKeyboard(prefix string, labels []string, current string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(labels))
	for i, l := range labels {
		text := l
		if l == current {
			text = "✅ " + l
		}
		btn := tgbotapi.NewInlineKeyboardButtonData(text, prefix+strconv.Itoa(i))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parseCallback splits "style:3" into its prefix and index.
func parseCallback(data string) (prefix string, idx int, ok bool) {
	for _, p := range []string{cbStyle, cbPersona} {
		if rest, found := strings.CutPrefix(data, p); found {
			n, err := strconv.Atoi(rest)
			if err != nil || n < 0 {
				return "", 0, false
			}
			return p, n, true
		}
	}
	return "", 0, false
}

// splitMessage cuts text into chunks of at most limit runes, preferring
// to break on a newline.
func splitMessage(text string, limit int) []string {
	var out []string
	rs := []rune(text)
	for len(rs) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if rs[i-1] == '\n' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimRight(string(rs[:cut]), "\n"))
		rs = rs[cut:]
	}
	if s := strings.TrimSpace(string(rs)); s != "" || len(out) == 0 {
		out = append(out, string(rs))
	}
	return out
}

func questionText(s types.Snapshot) string {
	return "📄 Question:\n\n" + s.Question
}

// progressText is the body of the in-place progress message.
func progressText(s types.Snapshot) string {
	var b strings.Builder
	switch s.Stage {
	case types.StageSolved:
		b.WriteString("🧮 " + pipeline.DisplayName(s.Model) + " solved it, explaining…\n\n")
	case types.StageExplained:
		b.WriteString("💡 " + pipeline.DisplayName(s.Model) + " explained it.\n\n")
	}
	b.WriteString(s.Steps)
	b.WriteString("\n\n")
	b.WriteString(s.Answer)
	if s.Explanation != "" {
		b.WriteString("\n\n")
		b.WriteString(s.Explanation)
	}
	return b.String()
}

// finalTexts - итог: шаги, ответ, объяснения отдельными сообщениями.
func finalTexts(s types.Snapshot) []string {
	answer := s.Answer
	if answer == "" {
		answer = "no answer"
	}
	var out []string
	if s.Steps != "" {
		out = append(out, splitMessage(s.Steps, maxMessageLen)...)
	}
	out = append(out, "🎯 Final answer: "+answer)
	if strings.TrimSpace(s.Explanation) != "" {
		out = append(out, splitMessage(s.Explanation, maxMessageLen)...)
	}
	return out
}

func settingsText(s chatSettings, defaultQueue []string) string {
	models := s.Models
	if len(models) == 0 {
		models = defaultQueue
	}
	multi := "off"
	if s.Multi {
		multi = "on"
	}
	var b strings.Builder
	b.WriteString("Teaching style: " + s.Style + "\n")
	b.WriteString("Persona: " + s.Persona + "\n")
	b.WriteString("Multi-model consensus: " + multi + "\n")
	b.WriteString("Models: " + strings.Join(models, ", "))
	if s.AugmentNext > 0 {
		b.WriteString("\nNext photo: generate " + strconv.Itoa(s.AugmentNext) + " similar questions")
	}
	return b.String()
}
