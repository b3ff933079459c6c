package wss

// Subscriber 定義了 WebSocket 事件的訂閱者介面。
// 任何實現此介面的類型都可以註冊到 Server，以接收連線、斷線和訊息事件。
// 回呼在 hub 的事件迴圈中執行，不可長時間阻塞。
type Subscriber interface {
	// OnConnect 當有新的客戶端連線建立時被呼叫。
	OnConnect(client Client)

	// OnDisconnect 當一個客戶端連線中斷 (包含伺服器關閉) 時被呼叫，之後 SendMessage 一律失敗。
	OnDisconnect(client Client)

	// OnMessage 當從客戶端收到新的訊息時被呼叫。
	OnMessage(client Client, message []byte)
}
