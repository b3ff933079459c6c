package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VisitorSession 代表目前訪客的身分狀態。
// ID 為空字串代表尚未輸入識別碼；Registered 區分匿名訪客 ID 與正式帳號 ID。
type VisitorSession struct {
	ID           string          `json:"visitorId"`
	Registered   bool            `json:"registered"`
	WalletAmount decimal.Decimal `json:"walletAmount"`
}

// HasIdentity 回報此 session 是否已有可用的識別碼。
func (s VisitorSession) HasIdentity() bool {
	return s.ID != ""
}

// VisitorInfo 是遠端服務登記訪客後回傳的資訊。
type VisitorInfo struct {
	WalletAmount decimal.Decimal `json:"walletAmount"`
	Message      string          `json:"message,omitempty"`
}

// IdentityUpgrade 記錄一次由匿名訪客 ID 升級為正式帳號 ID 的轉換。
type IdentityUpgrade struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}
