package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID

	prefix, idx, ok := parseCallback(cb.Data)
	if !ok {
		return
	}
	var labels []string
	if prefix == cbStyle {
		labels = r.Catalog.StyleLabels()
	} else {
		labels = r.Catalog.PersonaLabels()
	}
	if idx >= len(labels) {
		return
	}
	label := labels[idx]
	updateSettings(cid, func(s *chatSettings) {
		if prefix == cbStyle {
			s.Style = label
		} else {
			s.Persona = label
		}
	})

	// убрать клавиатуру и подтвердить выбор
	edit := tgbotapi.NewEditMessageText(cid, cb.Message.MessageID, "✅ "+label)
	_, _ = r.Bot.Send(edit)
}
