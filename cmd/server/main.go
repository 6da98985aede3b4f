package main

import (
	"log"

	"github.com/joho/godotenv"

	"farmguardian/internal/app"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := a.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
