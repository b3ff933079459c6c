package wss

import "time"

const (
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 4096
	defaultSendBufferSize = 256
)

// Config 定義了 WebSocket 伺服器的所有可設定參數。
type Config struct {
	WriteWait       time.Duration // 寫入操作的超時時間
	PongWait        time.Duration // 等待 Pong 訊息的超時時間
	PingPeriod      time.Duration // 發送 Ping 訊息的間隔
	MaxMessageSize  int64         // 允許接收的最大訊息大小
	ReadBufferSize  int           // 讀取緩衝區的大小
	WriteBufferSize int           // 寫入緩衝區的大小
	SendBufferSize  int           // 每條連線待發送訊息的佇列長度
	AllowedOrigins  []string      // 允許的 Origin，空白代表全部允許
}

// withDefaults 以預設值補上未設定的欄位。
func (c Config) withDefaults() Config {
	if c.WriteWait <= 0 {
		c.WriteWait = defaultWriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = defaultPongWait
	}
	// 如果 PingPeriod 沒有被設定，則根據 PongWait 計算一個合理的值
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = defaultSendBufferSize
	}
	return c
}
