package wss

import "net/http"

// Client 是一條已升級的 WebSocket 連線對外暴露的行為。
// 上層只依賴此介面；所有方法都可以在任意 goroutine 中呼叫。
type Client interface {
	// ID 返回連線的唯一標識符 (UUID)。
	ID() string
	// SendMessage 將文字訊息放入發送佇列，不會阻塞。
	// 連線已關閉時回傳 ErrConnectionClosed，佇列已滿時回傳 ErrSendBufferFull。
	SendMessage(message string) error
	// Kick 送出關閉訊框，連線隨後由 read/write pump 收尾。
	Kick(reason string) error
	// Closed 回報連線是否已從 hub 移除。
	Closed() bool
	// RemoteAddr 返回升級請求的來源位址 (host:port)。
	RemoteAddr() string
	// Headers 返回升級請求的 HTTP 標頭複本。
	Headers() http.Header
	// UserAgent 返回升級請求的 User-Agent。
	UserAgent() string
	// SetTag 在連線的生命週期內附加一個鍵值對資料。
	SetTag(key string, value any)
	// GetTag 讀取之前用 SetTag 附加的資料。
	GetTag(key string) (value any, exists bool)
}
