package domain

import "github.com/shopspring/decimal"

// Envelope 是所有推送給前端訊息的通用外層結構。
type Envelope struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// Publisher 將 UI 訊號推送給展示層。實作不可回呼發送訊號的元件。
type Publisher interface {
	Publish(action Action, payload any)
}

// PublisherFunc 讓一般函式可以當作 Publisher 使用。
type PublisherFunc func(action Action, payload any)

func (f PublisherFunc) Publish(action Action, payload any) {
	f(action, payload)
}

// NopPublisher 丟棄所有訊號。
type NopPublisher struct{}

func (NopPublisher) Publish(Action, any) {}

// Action 定義了推送給前端的訊號類型。
type Action string

const (
	ActionSessionReady         Action = "session_ready"
	ActionPrizes               Action = "prizes"
	ActionIdentityPrompt       Action = "identity_prompt"
	ActionIdentityRejected     Action = "identity_rejected"
	ActionIdentity             Action = "identity"
	ActionSpinEnabled          Action = "spin_enabled"
	ActionWheelRotate          Action = "wheel_rotate"
	ActionWheelSettle          Action = "wheel_settle"
	ActionNotification         Action = "notification"
	ActionNotificationProgress Action = "notification_progress"
	ActionNotificationHidden   Action = "notification_hidden"
	ActionOutcomeCard          Action = "outcome_card"
	ActionOutcomeCardHidden    Action = "outcome_card_hidden"
	ActionSignupForm           Action = "signup_form"
	ActionSuccessModal         Action = "success_modal"
	ActionError                Action = "error"
)

// --- Payloads ---

// PayloadSessionReady 在 session 建立後送出。
type PayloadSessionReady struct {
	SessionID   string `json:"sessionId"`
	DeviceToken string `json:"deviceToken"`
}

// PayloadPrizes 是目前載入的獎品目錄。
type PayloadPrizes struct {
	Prizes []Prize `json:"prizes"`
}

// PayloadIdentityPrompt 控制輸入訪客 ID 的提示框。
type PayloadIdentityPrompt struct {
	Visible bool `json:"visible"`
}

// PayloadIdentityRejected 要求前端播放輸入框的晃動提示。
type PayloadIdentityRejected struct {
	Hint string `json:"hint"`
}

// PayloadIdentity 是目前的訪客身分。
type PayloadIdentity struct {
	VisitorID    string          `json:"visitorId"`
	Registered   bool            `json:"registered"`
	WalletAmount decimal.Decimal `json:"walletAmount"`
}

// PayloadSpinEnabled 控制 spin 按鈕是否可用。
type PayloadSpinEnabled struct {
	Enabled bool `json:"enabled"`
}

// PayloadWheelRotate 要求前端以指定的轉場效果轉動輪盤。
type PayloadWheelRotate struct {
	Rotation   float64 `json:"rotation"`
	DurationMs int64   `json:"durationMs"`
	Easing     string  `json:"easing"`
	Index      int     `json:"index"`
}

// PayloadWheelSettle 要求前端在無轉場下將輪盤歸位到正規化後的角度。
type PayloadWheelSettle struct {
	Rotation float64 `json:"rotation"`
}

// PayloadNotification 是目前顯示中的通知。
type PayloadNotification struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Severity   Severity `json:"severity"`
	Progress   float64  `json:"progress"`
	DurationMs int64    `json:"durationMs"`
}

// PayloadNotificationProgress 是倒數進度 (0~100)。
type PayloadNotificationProgress struct {
	Progress float64 `json:"progress"`
}

// PayloadOutcomeCard 是 spin 結束後顯示的結果卡。
type PayloadOutcomeCard struct {
	Kind         string          `json:"kind"`
	Prize        *Prize          `json:"prize,omitempty"`
	WalletAmount decimal.Decimal `json:"walletAmount"`
	Headline     string          `json:"headline"`
	Detail       string          `json:"detail"`
}

// PayloadSignupForm 控制註冊表單的顯示，Form 帶回使用者已輸入的值。
type PayloadSignupForm struct {
	Visible bool       `json:"visible"`
	Form    SignupForm `json:"form"`
}

// PayloadSuccessModal 控制註冊成功視窗。
type PayloadSuccessModal struct {
	Visible bool `json:"visible"`
}

// PayloadError 回報無法處理的前端請求。
type PayloadError struct {
	Error string `json:"error"`
}
