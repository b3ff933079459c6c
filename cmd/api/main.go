package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	historyRepo "github.com/joe_shih/spin-wheel/internal/adapter/history"
	internalHTTP "github.com/joe_shih/spin-wheel/internal/adapter/http"
	"github.com/joe_shih/spin-wheel/internal/application/history"
	"github.com/joe_shih/spin-wheel/internal/config"
)

const configPath = "./configs"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}

	// 載入設定 (與 wsserver 共用同一份設定檔)
	cfg, err := config.LoadConfig[config.APIConfig](configPath, env)
	if err != nil {
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	// API 預設 Port 8081 (避免與 wsserver 8080 衝突)
	port := cfg.Port
	if port == 0 {
		port = 8081
	}
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化資料庫，未設定 driver 時查詢會回傳錯誤
	repo, err := historyRepo.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open spin history database", "error", err)
		os.Exit(1)
	}
	var records history.Repository
	if repo != nil {
		records = repo
		defer repo.Close()
	} else {
		logger.Warn("database driver not set, history queries are disabled")
	}
	historyService := history.NewService(logger, records)

	// 設定 Gin
	engine := gin.Default()
	internalHTTP.NewHandler(historyService, nil).Register(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	go func() {
		logger.Info("independent API server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
