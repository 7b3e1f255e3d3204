package cli

import (
	"os"

	"github.com/joho/godotenv"
)

// loadDotenv loads a .env file into the process environment. Existing
// variables win unless DOTENV_OVERLOAD=1; NO_DOTENV=1 disables loading and
// ENV_FILE names a file other than ./.env.
func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}

	path := ".env"
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		path = envFile
	}

	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		_ = godotenv.Overload(path)
		return
	}
	_ = godotenv.Load(path)
}
