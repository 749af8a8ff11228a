package config

import (
	"log"
	"os"
)

type Config struct {
	Port string

	GeminiAPIKey      string
	GeminiModel       string
	GeminiVerifyModel string
	VideoModel        string

	TelegramBotToken string
	WebhookURL       string

	DBPath string
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
	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey:      mustEnv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiVerifyModel: getEnv("GEMINI_VERIFY_MODEL", "gemini-2.5-pro"),
		VideoModel:        getEnv("VIDEO_MODEL", "veo-2.0-generate-001"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),

		DBPath: getEnv("DB_PATH", "stem-tutor.db"),
	}
}
