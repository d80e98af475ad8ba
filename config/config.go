package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultGreeting = "Hi! I am a voice assistant powered by Twilio and Google Gemini. Ask me anything!"

const defaultSystemPrompt = "You are a helpful phone assistant. Your answers are spoken aloud to a caller, " +
	"so keep them short, conversational, and free of markup, lists, and emoji."

// Config is loaded once at startup. Missing required values are fatal there;
// nothing re-reads the environment at runtime.
type Config struct {
	Port            string
	Domain          string // public hostname the relay dials back to
	WSURL           string
	WelcomeGreeting string
	SystemPrompt    string

	GoogleProject   string
	GoogleLocation  string
	GeminiModel     string
	LLMMode         string // "stateless" | "chat"
	MaxOutputTokens int
	LLMTimeout      time.Duration

	TwilioAccountSID   string
	TwilioAPIKeySID    string
	TwilioAPIKeySecret string
	TwilioTwiMLAppSID  string
	TokenTTL           time.Duration

	RedisAddr string // optional; empty disables the page cache
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	domain := os.Getenv("NGROK_URL")
	if domain == "" {
		return nil, errors.New("NGROK_URL environment variable is not set")
	}
	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project == "" {
		return nil, errors.New("GOOGLE_CLOUD_PROJECT environment variable is not set")
	}

	cfg := &Config{
		Port:            getenv("PORT", "8080"),
		Domain:          domain,
		WSURL:           "wss://" + domain + "/ws",
		WelcomeGreeting: getenv("WELCOME_GREETING", defaultGreeting),
		SystemPrompt:    getenv("SYSTEM_PROMPT", defaultSystemPrompt),

		GoogleProject:   project,
		GoogleLocation:  getenv("GOOGLE_CLOUD_LOCATION", "us-central1"),
		GeminiModel:     getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMMode:         getenv("LLM_MODE", "stateless"),
		MaxOutputTokens: getenvInt("LLM_MAX_OUTPUT_TOKENS", 256),
		LLMTimeout:      time.Duration(getenvInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,

		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAPIKeySID:    os.Getenv("TWILIO_API_KEY_SID"),
		TwilioAPIKeySecret: os.Getenv("TWILIO_API_KEY_SECRET"),
		TwilioTwiMLAppSID:  os.Getenv("TWILIO_TWIML_APP_SID"),
		TokenTTL:           time.Duration(getenvInt("TOKEN_TTL_SECONDS", 3600)) * time.Second,

		RedisAddr: firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
	}

	if cfg.LLMMode != "stateless" && cfg.LLMMode != "chat" {
		return nil, errors.New("LLM_MODE must be \"stateless\" or \"chat\"")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
