package main

import (
	"os"

	"zapas-be/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		logger.L().Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}
}
