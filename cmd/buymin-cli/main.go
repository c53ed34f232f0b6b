package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Vazimax/BuyMin/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Init()
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
