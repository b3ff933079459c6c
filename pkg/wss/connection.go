package wss

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrConnectionClosed 表示連線已關閉，訊息不會被送出。
	ErrConnectionClosed = errors.New("wss: connection closed")
	// ErrSendBufferFull 表示待發送佇列已滿，通常代表客戶端讀取太慢。
	ErrSendBufferFull = errors.New("wss: send buffer full")
)

// connection 是 Client 介面的具體實現，負責管理底層 WebSocket 連線。
type connection struct {
	id         string
	hub        *hub
	conn       *websocket.Conn
	cfg        Config
	remoteAddr string
	headers    http.Header
	logger     *slog.Logger

	// sendMu 保護 send 與 closed，關閉後不可再寫入 send
	sendMu sync.Mutex
	send   chan []byte
	closed bool

	// writeMu 序列化對底層連線的寫入
	writeMu sync.Mutex

	tags      map[string]any
	tagsMutex sync.RWMutex
}

// 確保 connection 類型在編譯時期就實現了 Client 接口。
var _ Client = (*connection)(nil)

// newConnection 創建一個新的客戶端連線實例。
func newConnection(hub *hub, conn *websocket.Conn, r *http.Request, cfg Config, logger *slog.Logger) *connection {
	clientID := generateClientID()
	return &connection{
		id:         clientID,
		hub:        hub,
		conn:       conn,
		cfg:        cfg,
		send:       make(chan []byte, cfg.SendBufferSize),
		remoteAddr: r.RemoteAddr,
		headers:    r.Header.Clone(), // 複製標頭以確保安全
		tags:       make(map[string]any),
		logger:     logger.With("clientID", clientID),
	}
}

// ID 返回客戶端的唯一標識符。
func (c *connection) ID() string {
	return c.id
}

// SendMessage 將一則訊息放入發送佇列，由 writePump 異步發送。
// 連線關閉後回傳 ErrConnectionClosed；佇列已滿時不會阻塞，而是回傳 ErrSendBufferFull。
func (c *connection) SendMessage(message string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- []byte(message):
		return nil
	default:
		c.logger.Warn("send buffer full, message dropped")
		return ErrSendBufferFull
	}
}

// Kick 送出關閉訊框並中斷與客戶端的連線。
func (c *connection) Kick(reason string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(c.cfg.WriteWait)
	err := c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
	c.logger.Info("client kicked", "reason", reason)
	return err
}

// Closed 回報連線是否已關閉發送佇列。
func (c *connection) Closed() bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.closed
}

// RemoteAddr 返回客戶端的網路位址。
func (c *connection) RemoteAddr() string {
	return c.remoteAddr
}

// Headers 返回客戶端升級請求時的 HTTP 標頭。
func (c *connection) Headers() http.Header {
	return c.headers
}

// UserAgent 返回客戶端的 User-Agent。
func (c *connection) UserAgent() string {
	return c.headers.Get("User-Agent")
}

// SetTag 在該連線的生命週期內附加一個鍵值對資料。
func (c *connection) SetTag(key string, value any) {
	c.tagsMutex.Lock()
	defer c.tagsMutex.Unlock()
	c.tags[key] = value
}

// GetTag 根據鍵名讀取之前用 SetTag 附加的資料。
func (c *connection) GetTag(key string) (value any, exists bool) {
	c.tagsMutex.RLock()
	defer c.tagsMutex.RUnlock()
	value, exists = c.tags[key]
	return
}

// closeSend 關閉發送佇列，讓 writePump 送出關閉訊框後結束。只有 hub 會呼叫。
func (c *connection) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump 將來自 WebSocket 連線的訊息泵送到 hub。
func (c *connection) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("read pump failed", "error", err)
			}
			return
		}
		if !c.hub.dispatch(&clientMessage{client: c, message: message}) {
			return
		}
	}
}

// writePump 將佇列中的訊息泵送到 WebSocket 連線，並定期送出 ping。
// 每則訊息都是獨立的訊框，前端可以逐則解析 JSON。
func (c *connection) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				c.writeMu.Unlock()
				return
			}
			err := c.conn.WriteMessage(websocket.TextMessage, message)
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Warn("write pump failed", "error", err)
				return
			}
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Warn("write pump failed on sending ping", "error", err)
				return
			}
		}
	}
}

// generateClientID 創建一個唯一的、基於 UUID 的客戶端 ID。
func generateClientID() string {
	return uuid.NewString()
}
