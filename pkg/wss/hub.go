package wss

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// clientMessage 是一個內部結構，用於將客戶端和其發送的訊息綁定在一起。
type clientMessage struct {
	client  *connection
	message []byte
}

// hub 維護一組活躍的客戶端，並將事件分派給所有已註冊的 Subscriber。
// 所有 Subscriber 的回呼都在 hub 的事件迴圈中依序執行。
type hub struct {
	clients     map[*connection]struct{}
	size        atomic.Int64
	register    chan *connection
	unregister  chan *connection
	inbound     chan *clientMessage
	subscribers []Subscriber
	ctx         context.Context
	done        chan struct{}
	logger      *slog.Logger
}

// newHub 創建一個新的 hub 實例。
//
// Params:
//   - ctx: context.Context, 用於控制 hub 生命週期的上下文。
//   - logger: *slog.Logger, 用於記錄日誌的 slog 實例。
//
// Returns:
//   - *hub: 一個初始化完成的 hub 實例。
func newHub(ctx context.Context, logger *slog.Logger) *hub {
	return &hub{
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		inbound:     make(chan *clientMessage),
		clients:     make(map[*connection]struct{}),
		subscribers: make([]Subscriber, 0),
		ctx:         ctx,
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// registerSubscriber 註冊一個新的事件處理器 (Subscriber)，必須在伺服器開始接受連線前呼叫。
func (h *hub) registerSubscriber(subscriber Subscriber) {
	if subscriber != nil {
		h.subscribers = append(h.subscribers, subscriber)
	}
}

// registerClient 將新連線交給 hub，hub 已停止時回傳 false。
func (h *hub) registerClient(c *connection) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// unregisterClient 通知 hub 連線已中斷。
func (h *hub) unregisterClient(c *connection) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// dispatch 將收到的訊息交給 hub，hub 已停止時回傳 false。
func (h *hub) dispatch(msg *clientMessage) bool {
	select {
	case h.inbound <- msg:
		return true
	case <-h.done:
		return false
	}
}

// run 啟動 hub 的主事件迴圈。
// 這個迴圈會處理客戶端的註冊、註銷、訊息傳遞以及優雅關閉的邏輯。
func (h *hub) run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.size.Store(int64(len(h.clients)))
			h.logger.Info("client registered", "clientID", client.ID())
			for _, subscriber := range h.subscribers {
				subscriber.OnConnect(client)
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.logger.Info("client unregistered", "clientID", client.ID())
			}
		case msg := <-h.inbound:
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			h.logger.Debug("message received from client", "clientID", msg.client.ID())
			for _, subscriber := range h.subscribers {
				subscriber.OnMessage(msg.client, msg.message)
			}
		case <-h.ctx.Done():
			// Context 被取消，開始關閉程序
			h.logger.Info("hub shutting down", "clients", len(h.clients))
			for client := range h.clients {
				client.Kick("Server is shutting down.")
				h.remove(client)
			}
			return
		}
	}
}

func (h *hub) remove(client *connection) {
	delete(h.clients, client)
	h.size.Store(int64(len(h.clients)))
	client.closeSend()
	for _, subscriber := range h.subscribers {
		subscriber.OnDisconnect(client)
	}
}
