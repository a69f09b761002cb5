package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/TooLazyToCreate/bucketlist/config"
	"github.com/TooLazyToCreate/bucketlist/internal/app"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	workingDir, err := os.Getwd()
	if err != nil {
		log.Fatal("os.Getwd() failed with error - " + err.Error())
	}
	cfg := config.MustLoad(filepath.Join(workingDir, "go.env"))

	zapConfig := zap.NewProductionConfig()
	if cfg.IsDev() {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
	} else {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapConfig.Development = false
	}
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatal("Logger setup failed with error - " + err.Error())
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = app.Run(ctx, logger, cfg); err != nil {
		logger.Fatal("Server have been stopped with error - " + err.Error())
	}
	logger.Info("Server have been stopped.")
}
