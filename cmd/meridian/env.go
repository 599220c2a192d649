package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	llmprovider "github.com/haowjy/meridian-llm-go"
)

// loadEnv loads the first .env file found walking up from the working
// directory. Variables already set in the environment win. It returns the
// path it loaded, or "" when there was none.
func loadEnv() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath, godotenv.Load(envPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// apiKeyEnv names the environment variable holding each vendor's key.
var apiKeyEnv = map[llmprovider.ProviderID]string{
	llmprovider.ProviderAnthropic:  "ANTHROPIC_API_KEY",
	llmprovider.ProviderOpenRouter: "OPENROUTER_API_KEY",
	llmprovider.ProviderGoogle:     "GEMINI_API_KEY",
}
