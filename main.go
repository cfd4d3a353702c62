package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"chainswap/cmd"
)

func main() {
	// A .env file is optional; config falls back to the environment and
	// the config file.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
