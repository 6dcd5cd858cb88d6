package telegram

import (
	"sync"
	"time"

	"stemmate/api/internal/config"
)

const debounce = 1200 * time.Millisecond

// chatSettings - выбор пользователя в чате; живёт до рестарта.
type chatSettings struct {
	Style       string
	Persona     string
	Multi       bool
	Models      []string // пусто - очередь по умолчанию
	AugmentNext int      // >0: следующее фото генерирует похожие задачи
}

func defaultSettings() chatSettings {
	return chatSettings{
		Style:   config.DefaultStyle,
		Persona: config.DefaultPersona,
		Multi:   true,
	}
}

var (
	chatState  sync.Map // chatID -> chatSettings
	settingsMu sync.Mutex
)

func getSettings(chatID int64) chatSettings {
	if v, ok := chatState.Load(chatID); ok {
		return v.(chatSettings)
	}
	return defaultSettings()
}

// updateSettings applies fn to the chat's settings. The polling loop and
// batch timers both write here, so the read-modify-write holds settingsMu.
func updateSettings(chatID int64, fn func(*chatSettings)) chatSettings {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	s := getSettings(chatID)
	s.Models = append([]string(nil), s.Models...)
	fn(&s)
	chatState.Store(chatID, s)
	return s
}

type photoBatch struct {
	ChatID       int64
	Key          string // "grp:<mediaGroupID>" | "chat:<chatID>"
	MediaGroupID string

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
}

var batches sync.Map // key -> *photoBatch
