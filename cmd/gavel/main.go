package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"gavel/internal/services"
)

func main() {
	// Secrets (S3 credentials, Telegram token) may live in a local .env.
	_ = godotenv.Load()

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes run-level faults (another instance holds the lock,
// broken configuration) from per-video failures.
func exitCode(err error) int {
	if services.Fatal(err) {
		return 2
	}
	return 1
}
