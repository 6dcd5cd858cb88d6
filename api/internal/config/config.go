package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultExtractModel = "meta-llama/Llama-4-Maverick-17B-128E-Instruct-FP8"
	DefaultExplainModel = "google/gemma-3n-E4B-it"
	DefaultLanguage     = "Vietnamese"
)

// DefaultQueue - порядок важен: первая модель решает при расхождении.
var DefaultQueue = []string{
	"Qwen/Qwen3-235B-A22B-fp8-tput",
	"Qwen/Qwen3-Next-80B-A3B-Thinking",
	"openai/gpt-oss-20b",
}

type Config struct {
	Port string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string // пусто - gemini-* модели не маршрутизируются

	ExtractModel string
	ExplainModel string
	AugmentModel string
	ModelQueue   []string
	Language     string

	TelegramToken  string
	CatalogPath    string
	RequestTimeout time.Duration
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	extract := getEnv("EXTRACT_MODEL", DefaultExtractModel)
	return &Config{
		Port: getEnv("PORT", "8000"),

		OpenAIAPIKey:  mustEnv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_API_BASE_URL", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),

		ExtractModel: extract,
		ExplainModel: getEnv("EXPLAIN_MODEL", DefaultExplainModel),
		AugmentModel: getEnv("AUGMENT_MODEL", extract),
		ModelQueue:   ParseList(getEnv("MODEL_QUEUE", strings.Join(DefaultQueue, ","))),
		Language:     getEnv("EXPLAIN_LANGUAGE", DefaultLanguage),

		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		CatalogPath:    getEnv("CATALOG_PATH", ""),
		RequestTimeout: time.Duration(getInt("REQUEST_TIMEOUT_SEC", 180)) * time.Second,
	}
}

// ParseList splits a comma separated list, dropping blanks and keeping order.
func ParseList(s string) []string {
	return CleanList(strings.Split(s, ","))
}

// CleanList trims every item and drops the blank ones.
func CleanList(items []string) []string {
	var out []string
	for _, p := range items {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: bad %s=%q, using %d", k, v, def)
		return def
	}
	return n
}
