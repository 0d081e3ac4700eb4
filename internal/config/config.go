package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	SessionSecret string
	SessionExpiry time.Duration

	Facebook OAuthConfig
	Twitter  OAuthConfig
	Google   OAuthConfig
	LinkedIn OAuthConfig
	GitHub   OAuthConfig
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionExpiry, err := time.ParseDuration(getEnv("SESSION_EXPIRY", "720h"))
	if err != nil {
		sessionExpiry = 720 * time.Hour
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SessionSecret: getEnvOrPanic("SESSION_SECRET"),
		SessionExpiry: sessionExpiry,

		Facebook: oauthEnv("FACEBOOK"),
		Twitter:  oauthEnv("TWITTER"),
		Google:   oauthEnv("GOOGLE"),
		LinkedIn: oauthEnv("LINKEDIN"),
		GitHub:   oauthEnv("GITHUB"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func oauthEnv(prefix string) OAuthConfig {
	return OAuthConfig{
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURL:  getEnv(prefix+"_REDIRECT_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
