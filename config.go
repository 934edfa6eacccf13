package memoir

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries the environment-derived settings used by the CLI and tests.
type Config struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string

	SearchEndpoint string
	SearchIndex    string
	SearchAPIKey   string

	PostgresURI string
	SQLitePath  string
}

// LoadConfig reads settings from a .env file when one exists, falling back
// to the process environment.
func LoadConfig() *Config {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	return &Config{
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		Model:         getEnv("MEMOIR_MODEL", DefaultModel),

		SearchEndpoint: getEnv("SEARCH_ENDPOINT", ""),
		SearchIndex:    getEnv("SEARCH_INDEX", ""),
		SearchAPIKey:   getEnv("SEARCH_API_KEY", ""),

		PostgresURI: getEnv("POSTGRES_URI", ""),
		SQLitePath:  getEnv("MEMOIR_DB_PATH", "memoir.db"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
