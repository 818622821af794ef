package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
)

func main() {
	config.LoadDotEnv()

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <userID>")
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.APIMasterSecret == "" {
		fmt.Println("Error: API_MASTER_SECRET is not set")
		os.Exit(1)
	}

	userID := os.Args[1]
	apiKey := auth.New(cfg).GenerateAPIKey(userID)
	fmt.Printf("Generated Key for %s:\n%s\n", userID, apiKey)
}
