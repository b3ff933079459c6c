package gateway

import "github.com/joe_shih/spin-wheel/internal/domain"

// EventHandler 定義了 gateway 處理外部連線事件所需實現的介面。
// 這是 application 層的入口點 (port)，由外部的 adapter 來驅動。
type EventHandler interface {
	HandleConnect(client domain.Client)
	HandleDisconnect(client domain.Client)
	HandleMessage(client domain.Client, message []byte)
}
