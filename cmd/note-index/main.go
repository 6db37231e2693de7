package main

import (
	"log"

	"github.com/0x5457/note-index/cmd/note-index/commands"
	"github.com/joho/godotenv"
)

func main() {
	// pick up OPENAI_API_KEY and friends from a local .env if present
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
