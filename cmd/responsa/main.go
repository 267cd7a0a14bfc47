// Command responsa answers questions over an indexed corpus using
// hybrid retrieval and citation-grounded generation.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/responsa/internal/adapters/driving/cli"
)

func main() {
	// Optional .env for API keys referenced from config.toml.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
