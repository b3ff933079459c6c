package ws

import (
	"github.com/joe_shih/spin-wheel/internal/application/gateway"
	"github.com/joe_shih/spin-wheel/pkg/wss"
)

// GatewayAdapter 將來自 wss 層的事件，轉接給 application 層的 gateway.EventHandler。
// 它實現了 wss.Subscriber 介面，是標準的框架轉接器。
type GatewayAdapter struct {
	handler gateway.EventHandler
}

// 確保 GatewayAdapter 在編譯時期就實現了 wss.Subscriber 介面。
var _ wss.Subscriber = (*GatewayAdapter)(nil)

// NewGatewayAdapter 創建一個新的 GatewayAdapter 實例。
func NewGatewayAdapter(handler gateway.EventHandler) *GatewayAdapter {
	return &GatewayAdapter{handler: handler}
}

// OnConnect 在收到 wss 的連線事件時被呼叫。
func (a *GatewayAdapter) OnConnect(client wss.Client) {
	a.handler.HandleConnect(NewClientAdapter(client))
}

// OnDisconnect 在收到 wss 的斷線事件時被呼叫。
func (a *GatewayAdapter) OnDisconnect(client wss.Client) {
	a.handler.HandleDisconnect(NewClientAdapter(client))
}

// OnMessage 在收到 wss 的訊息事件時被呼叫。
func (a *GatewayAdapter) OnMessage(client wss.Client, message []byte) {
	a.handler.HandleMessage(NewClientAdapter(client), message)
}
