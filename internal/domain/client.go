package domain

// Client 代表一個已連線的瀏覽器端點。
// 這是 application 層看到的連線介面，由 adapter 將 WebSocket 連線轉接而來。
type Client interface {
	// ID 回傳連線的唯一識別碼。
	ID() string
	// SendMessage 送出一則文字訊息。
	SendMessage(message string) error
	// Kick 以指定原因關閉連線。
	Kick(reason string) error
	// SetTag 在連線上附加一個值。
	SetTag(key string, value any)
	// GetTag 讀取連線上附加的值。
	GetTag(key string) (any, bool)
	// GetIP 回傳連線的來源 IP。
	GetIP() string
}
