package config

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	BaseURL      string
	DBPath       string
	UploadDir    string
	TemplateDir  string
	CSRFKey      []byte
	SessionKey   []byte
	CookieDomain string
	CookieSecure bool

	// Outbound email. When SMTPHost is empty the server falls back to
	// the log-only sender, which is fine for local dev but leaves
	// magic-link login unusable (admins can use the password fallback).
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8585"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8585"),
		DBPath:       getEnv("DB_PATH", "./vurmz.db"),
		UploadDir:    getEnv("UPLOAD_DIR", "./static/uploads"),
		TemplateDir:  getEnv("TEMPLATE_DIR", "./templates"),
		CookieDomain: getEnv("COOKIE_DOMAIN", ""),
		CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "Vurmz Laser Engraving <orders@vurmz.com>"),
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "465"))
	if err != nil {
		slog.Warn("Invalid SMTP_PORT, using 465", "SMTP_PORT", os.Getenv("SMTP_PORT"))
		smtpPort = 465
	}
	cfg.SMTPPort = smtpPort

	cfg.CSRFKey = loadKey("CSRF_KEY")
	cfg.SessionKey = loadKey("SESSION_KEY")

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = "8585"
	}

	return cfg, nil
}

// loadKey reads a base64 32-byte key from the environment, generating
// a throwaway one (with a loud warning) when missing or malformed.
func loadKey(name string) []byte {
	raw := os.Getenv(name)
	if raw == "" {
		slog.Warn(name + " not set. Generating a random key for development; it changes on every restart. SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		slog.Warn(name + " is invalid or shorter than 32 bytes. Generating a random key for development. SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable for key material.
		panic("config: crypto/rand unavailable: " + err.Error())
	}
	return b
}
