package gateway

// ActionType 定義了瀏覽器送來的操作類型。
type ActionType string

const (
	Hello               ActionType = "hello"
	SubmitVisitorID     ActionType = "submit_visitor_id"
	Spin                ActionType = "spin"
	CloseCard           ActionType = "close_card"
	ClaimPrize          ActionType = "claim_prize"
	CloseSignup         ActionType = "close_signup"
	SubmitSignup        ActionType = "submit_signup"
	CloseSuccess        ActionType = "close_success"
	DismissNotification ActionType = "dismiss_notification"
	Reset               ActionType = "reset"
)

// helloPayload 建立 session 用的資料，DeviceToken 為空時由伺服器發給新的。
type helloPayload struct {
	DeviceToken string `json:"deviceToken"`
}

// visitorPayload 訪客 ID 輸入
type visitorPayload struct {
	VisitorID string `json:"visitorId"`
}
