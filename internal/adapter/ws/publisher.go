package ws

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/pkg/wss"
)

// ClientPublisher 把 UI 訊號編碼成 JSON Envelope 並送到連線上。
type ClientPublisher struct {
	client domain.Client
	logger *slog.Logger
}

var _ domain.Publisher = (*ClientPublisher)(nil)

// NewClientPublisher 建立一個送往 client 的 Publisher。
func NewClientPublisher(client domain.Client, logger *slog.Logger) *ClientPublisher {
	return &ClientPublisher{
		client: client,
		logger: logger.With("component", "client_publisher", "clientID", client.ID()),
	}
}

// PublisherFactory 回傳一個可交給 gateway 使用的工廠函式。
func PublisherFactory(logger *slog.Logger) func(client domain.Client) domain.Publisher {
	return func(client domain.Client) domain.Publisher {
		return NewClientPublisher(client, logger)
	}
}

func (p *ClientPublisher) Publish(action domain.Action, payload any) {
	data, err := json.Marshal(domain.Envelope{Action: string(action), Payload: payload})
	if err != nil {
		p.logger.Error("encode signal failed", "action", action, "error", err)
		return
	}
	if err := p.client.SendMessage(string(data)); err != nil {
		if errors.Is(err, wss.ErrConnectionClosed) {
			p.logger.Debug("signal dropped, connection closed", "action", action)
			return
		}
		p.logger.Warn("send signal failed", "action", action, "error", err)
	}
}
