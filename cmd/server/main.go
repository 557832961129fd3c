package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/api"
	"github.com/zappabad/safetrade/internal/logging"
	"github.com/zappabad/safetrade/internal/venue"
)

func main() {
	// Environment first, then .env in the working directory, then defaults.
	cfg, err := venue.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.LogFile != "" {
		logger, err = logging.NewWithFile(cfg.LogLevel, cfg.LogFile)
	} else {
		logger, err = logging.New(cfg.LogLevel)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	v, err := venue.New(cfg, logger)
	if err != nil {
		logger.Fatal("venue", zap.Error(err))
	}
	defer v.Close()

	apiCfg := api.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		apiCfg.AllowedOrigins = cfg.AllowedOrigins
	}
	srv := api.NewServer(apiCfg, v.Brokerage, v.Market, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.HTTPAddr, v.Market.Events()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
