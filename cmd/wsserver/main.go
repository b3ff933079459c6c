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
	"github.com/joe_shih/spin-wheel/internal/adapter/remote"
	remoteMock "github.com/joe_shih/spin-wheel/internal/adapter/remote/mock"
	"github.com/joe_shih/spin-wheel/internal/adapter/store"
	"github.com/joe_shih/spin-wheel/internal/adapter/ws"
	"github.com/joe_shih/spin-wheel/internal/application/gateway"
	"github.com/joe_shih/spin-wheel/internal/application/history"
	"github.com/joe_shih/spin-wheel/internal/application/identity"
	"github.com/joe_shih/spin-wheel/internal/application/session"
	"github.com/joe_shih/spin-wheel/internal/config"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
	"github.com/joe_shih/spin-wheel/pkg/wss"
	"github.com/redis/go-redis/v9"
)

const configPath = "./configs"

func main() {
	// 1. 初始化結構化日誌 Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}

	// 2. 載入設定檔
	cfg, err := config.LoadConfig[config.WebsocketConfig](configPath, env)
	if err != nil {
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	// 3. 建立一個 context 用於控制伺服器生命週期
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. 初始化 Adapters
	remoteService := newRemote(cfg.Remote, logger)

	identityStore, closeStore, err := newStore(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	repo, err := historyRepo.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open spin history database", "error", err)
		os.Exit(1)
	}
	var records history.Repository
	if repo != nil {
		records = repo
		defer repo.Close()
	}
	historyService := history.NewService(logger, records)

	// 5. 建立 session gateway
	game := cfg.Game.WithDefaults()
	gw := gateway.NewService(ctx, session.Deps{
		Store:    identityStore,
		Remote:   remoteService,
		Recorder: historyService,
		Clock:    schedule.RealClock(),
		Settings: session.Settings{
			IdentityKey:      game.IdentityKey,
			Animation:        game.Animation(),
			Settle:           game.Settle(),
			Notification:     game.Notification(),
			NotificationTick: game.NotificationTick(),
			PromptDelay:      game.PromptDelay(),
			ModalDelay:       game.ModalDelay(),
			IdentityTimeout:  time.Duration(cfg.Remote.TimeoutSec) * time.Second,
			SpinTimeout:      game.SpinTimeout(),
			SignupTimeout:    game.SignupTimeout(),
		},
	}, ws.PublisherFactory(logger), logger)

	// 6. 建立 WebSocket 伺服器並註冊 gateway
	wsServer := wss.NewServer(ctx, &wss.Config{
		WriteWait:       time.Duration(cfg.WriteWaitSec) * time.Second,
		PongWait:        time.Duration(cfg.PongWaitSec) * time.Second,
		MaxMessageSize:  cfg.MaxMessageSize,
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		SendBufferSize:  cfg.SendBufferSize,
		AllowedOrigins:  cfg.AllowedOrigins,
	}, logger)
	wsServer.Register(ws.NewGatewayAdapter(gw))

	// 7. 使用 Gin 掛上 /ws 與 API 路由
	engine := gin.Default()
	// 使用 gin.WrapH 將實現了 http.Handler 的 wsServer 包裝成 Gin 的 HandlerFunc
	engine.GET("/ws", gin.WrapH(wsServer))
	internalHTTP.NewHandler(historyService, gw).Register(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}
	go func() {
		logger.Info("websocket server (gin) starting", "port", cfg.Port, "remoteMode", cfg.Remote.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to run gin server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down websocket server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", "error", err)
	}
	// hub 會踢出所有連線，每條連線的 session 由 gateway 關閉
	select {
	case <-wsServer.Done():
	case <-shutdownCtx.Done():
	}
	gw.Shutdown()
	logger.Info("websocket server stopped")
}

// newRemote 依設定建立遠端服務的 adapter。
func newRemote(cfg config.RemoteConfig, logger *slog.Logger) session.Remote {
	if cfg.Mode == config.ModeReal {
		logger.Info("using remote spin service", "baseUrl", cfg.BaseURL)
		return remote.NewClient(cfg.BaseURL, cfg.APIKey, time.Duration(cfg.TimeoutSec)*time.Second)
	}

	var opts []remoteMock.Option
	if cfg.DailyLimit > 0 {
		opts = append(opts, remoteMock.WithDailyLimit(cfg.DailyLimit))
	}
	if cfg.WinPercent > 0 {
		opts = append(opts, remoteMock.WithWinPercent(cfg.WinPercent))
	}
	logger.Info("using mock spin service")
	return remoteMock.NewService(opts...)
}

// newStore 依設定建立訪客身分的儲存。Redis 位址為空時使用記憶體儲存。
func newStore(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (identity.Store, func(), error) {
	if cfg.Addr == "" {
		logger.Info("using in-memory identity store")
		return store.NewMemoryStore(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	logger.Info("using redis identity store", "addr", cfg.Addr)
	return store.NewRedisStore(rdb, cfg.Prefix), func() { rdb.Close() }, nil
}
