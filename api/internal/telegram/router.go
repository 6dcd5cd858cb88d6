package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stemmate/api/internal/config"
	"stemmate/api/internal/pipeline"
	"stemmate/api/internal/tutor/types"
	"stemmate/api/internal/util"
)

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot     Bot
	Orch    *pipeline.Orchestrator
	Catalog *config.Catalog

	// Timeout bounds one pipeline run; 0 means no limit.
	Timeout time.Duration
}

const helpText = `Send me a photo of a STEM question and I will transcribe it, solve it with several models and explain the answer.

Commands:
/style - choose the teaching style
/persona - choose the tutor persona
/multi on|off - multi-model consensus
/models m1,m2 - models to use (/models alone resets)
/augment [n] - next photo: generate n similar questions (1..5)
/settings - show current settings`

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd.Message)
		return
	}
	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(ctx, *upd.Message)
		return
	}
	r.send(upd.Message.Chat.ID, "Please send a photo of the question. /start for help.")
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "style":
		m := tgbotapi.NewMessage(cid, "Choose a teaching style:")
		m.ReplyMarkup = labelKeyboard(cbStyle, r.Catalog.StyleLabels(), getSettings(cid).Style)
		r.sendConfig(m)
	case "persona":
		m := tgbotapi.NewMessage(cid, "Choose your tutor:")
		m.ReplyMarkup = labelKeyboard(cbPersona, r.Catalog.PersonaLabels(), getSettings(cid).Persona)
		r.sendConfig(m)
	case "multi":
		on, ok := parseSwitch(args)
		if !ok {
			r.send(cid, "Usage: /multi on|off")
			return
		}
		updateSettings(cid, func(s *chatSettings) { s.Multi = on })
		r.send(cid, "✅ Multi-model consensus: "+args)
	case "models":
		models := config.ParseList(args)
		updateSettings(cid, func(s *chatSettings) { s.Models = models })
		if len(models) == 0 {
			r.send(cid, "✅ Using default models: "+strings.Join(r.Orch.DefaultQueue(), ", "))
			return
		}
		r.send(cid, "✅ Models: "+strings.Join(models, ", "))
	case "augment":
		n, err := parseCount(args)
		if err != nil {
			r.send(cid, "Usage: /augment [1..5]")
			return
		}
		updateSettings(cid, func(s *chatSettings) { s.AugmentNext = n })
		r.send(cid, fmt.Sprintf("Ok, send a photo and I will generate %d similar questions.", n))
	case "settings":
		r.send(cid, settingsText(getSettings(cid), r.Orch.DefaultQueue()))
	default:
		r.send(cid, "Unknown command. /start for help.")
	}
}

// solve runs the pipeline on img and mirrors its progress into the chat:
// the question is sent once, a progress message is edited in place, and
// the final result goes out as fresh messages.
func (r *Router) solve(ctx context.Context, chatID int64, img []byte) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	st := getSettings(chatID)
	if st.AugmentNext > 0 {
		updateSettings(chatID, func(s *chatSettings) { s.AugmentNext = 0 })
		r.augment(ctx, chatID, img, st.AugmentNext)
		return
	}

	stream := r.Orch.Run(pipeline.Request{
		Image:      img,
		MultiModel: st.Multi,
		Models:     st.Models,
		Style:      st.Style,
		Persona:    st.Persona,
	})
	log.Printf("telegram: chat %d run %s", chatID, stream.RunID())

	progressID := 0
	for snap, err := range stream.All(ctx) {
		if err != nil {
			r.replaceOrSend(chatID, progressID, "❌ "+pipeline.ErrorSnapshot(err).Question)
			return
		}
		switch snap.Stage {
		case types.StageQuestion:
			for _, text := range splitMessage(questionText(snap), maxMessageLen) {
				r.send(chatID, text)
			}
			progressID = r.send(chatID, "⏳ Solving…")
		case types.StageSolved, types.StageExplained:
			r.replaceOrSend(chatID, progressID, progressText(snap))
		case types.StageFinal:
			r.replaceOrSend(chatID, progressID, "✅ Done.")
			for _, text := range finalTexts(snap) {
				r.send(chatID, text)
			}
		}
	}
}

func (r *Router) augment(ctx context.Context, chatID int64, img []byte, count int) {
	r.send(chatID, fmt.Sprintf("⏳ Generating %d similar questions…", count))
	out, err := r.Orch.Augment(ctx, img, count, "")
	if err != nil {
		r.send(chatID, "❌ "+pipeline.ErrorSnapshot(err).Question)
		return
	}
	for _, text := range splitMessage(out, maxMessageLen) {
		r.send(chatID, text)
	}
}

// send returns the id of the sent message, 0 on failure.
func (r *Router) send(chatID int64, text string) int {
	return r.sendConfig(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendConfig(m tgbotapi.MessageConfig) int {
	sent, err := r.Bot.Send(m)
	if err != nil {
		log.Printf("telegram: send to %d: %v", m.ChatID, err)
		return 0
	}
	return sent.MessageID
}

// replaceOrSend edits msgID, or sends a new message when there is none.
func (r *Router) replaceOrSend(chatID int64, msgID int, text string) {
	text = util.Truncate(text, maxMessageLen-1)
	if msgID == 0 {
		r.send(chatID, text)
		return
	}
	if _, err := r.Bot.Send(tgbotapi.NewEditMessageText(chatID, msgID, text)); err != nil {
		log.Printf("telegram: edit %d/%d: %v", chatID, msgID, err)
	}
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "1", "yes", "true":
		return true, true
	case "off", "0", "no", "false":
		return false, true
	}
	return false, false
}

// parseCount reads the /augment argument: empty means 3, otherwise 1..5.
func parseCount(s string) (int, error) {
	if s == "" {
		return 3, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 5 {
		return 0, fmt.Errorf("count %d out of range", n)
	}
	return n, nil
}
