// Command askdoc indexes documents and answers questions against them.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/askdoc/internal/adapters/driving/cli"
)

// version is stamped at build time with -ldflags.
var version = "dev"

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
