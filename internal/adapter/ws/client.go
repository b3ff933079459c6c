package ws

import (
	"net"
	"strings"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/pkg/wss"
)

// ClientAdapter 將一個 wss.Client 物件「轉接」成一個 domain.Client。
type ClientAdapter struct {
	client wss.Client
}

// 確保 ClientAdapter 在編譯時期就實現了 domain.Client 介面。
var _ domain.Client = (*ClientAdapter)(nil)

// NewClientAdapter 創建一個新的轉接器實例。
func NewClientAdapter(client wss.Client) *ClientAdapter {
	return &ClientAdapter{client: client}
}

// --- 實現 domain.Client 介面 ---

func (a *ClientAdapter) ID() string {
	return a.client.ID()
}

func (a *ClientAdapter) SendMessage(message string) error {
	return a.client.SendMessage(message)
}

func (a *ClientAdapter) Kick(reason string) error {
	return a.client.Kick(reason)
}

func (a *ClientAdapter) SetTag(key string, value any) {
	a.client.SetTag(key, value)
}

func (a *ClientAdapter) GetTag(key string) (any, bool) {
	return a.client.GetTag(key)
}

// GetIP 從 RemoteAddr 解析出 IP 位址，優先採用反向代理帶來的 X-Forwarded-For。
func (a *ClientAdapter) GetIP() string {
	if forwarded := a.client.Headers().Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	addr := a.client.RemoteAddr()
	// net.SplitHostPort 對 IPv6 的位址 (例如 "[::1]:1234") 也能正常處理
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		// addr 不含 port 時可能本身就是 IP，移除 IPv6 的方括號
		return strings.Trim(addr, "[]")
	}
	return host
}
