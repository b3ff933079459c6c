package wss

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Server 是 websocket package 對外的主要門面 (Facade)，並實現了 http.Handler 介面。
type Server struct {
	hub      *hub
	cfg      Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// 確保 Server 實現了 http.Handler 介面
var _ http.Handler = (*Server)(nil)

// NewServer 創建並設定一個完整的 WebSocket 伺服器。
//
// Params:
//   - ctx: context.Context, 取消時 hub 會踢出所有連線並停止。
//   - cfg: *Config, WebSocket 伺服器的設定參數，未設定的欄位使用預設值。
//   - logger: *slog.Logger, 用於記錄日誌的 slog 實例。
//
// Returns:
//   - *Server: 一個初始化完成的 WebSocket 伺服器實例。
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) *Server {
	c := cfg.withDefaults()
	h := newHub(ctx, logger.With("component", "hub"))
	go h.run()

	s := &Server{
		hub:    h,
		cfg:    c,
		logger: logger.With("component", "wss_server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  c.ReadBufferSize,
		WriteBufferSize: c.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Register 將一個業務邏輯處理器 (Subscriber) 註冊到 WebSocket 伺服器。
func (s *Server) Register(subscriber Subscriber) {
	s.hub.registerSubscriber(subscriber)
}

// Len 回傳目前的連線數量。
func (s *Server) Len() int {
	return int(s.hub.size.Load())
}

// Done 在 hub 停止後關閉。
func (s *Server) Done() <-chan struct{} {
	return s.hub.done
}

// ServeHTTP 實現 http.Handler 介面，處理 WebSocket 的升級請求。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newConnection(s.hub, conn, r, s.cfg, s.logger.With("component", "client"))
	if !s.hub.registerClient(client) {
		client.Kick("Server is shutting down.")
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// checkOrigin 在設定了 AllowedOrigins 時只接受列表中的來源。
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
			return true
		}
	}
	s.logger.Warn("origin rejected", "origin", origin)
	return false
}
