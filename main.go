package main

import (
	"log"

	"career-agent/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// Load a local .env when present. Real environment variables win.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
