package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpinResult 是遠端服務回傳的原始 spin 結果，尚未經過解讀。
// 結果標籤可能放在 Result 或 Status 欄位。
type SpinResult struct {
	Result       string              `json:"result,omitempty"`
	Status       string              `json:"status,omitempty"`
	Prize        *Prize              `json:"prize,omitempty"`
	WalletAmount decimal.NullDecimal `json:"walletAmount"`
	Message      string              `json:"message,omitempty"`
}

// Tag 回傳結果標籤，優先採用 Result 欄位。
func (r SpinResult) Tag() string {
	if r.Result != "" {
		return r.Result
	}
	return r.Status
}

// OutcomeKind 定義了 spin 結果的種類。
type OutcomeKind int

const (
	OutcomeWin OutcomeKind = iota
	OutcomeLose
	OutcomeRateLimited
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeWin:
		return "win"
	case OutcomeLose:
		return "lose"
	case OutcomeRateLimited:
		return "limit"
	default:
		return "failed"
	}
}

// SpinOutcome 是一次 spin 請求解讀後的結果。
// Prize 與 WalletAmount 只在 Win 時有意義；Message 與 Err 用於 RateLimited 與 Failed。
type SpinOutcome struct {
	Kind         OutcomeKind
	Prize        Prize
	WalletAmount decimal.Decimal
	Message      string
	Err          error
}

// Win 建立一個中獎結果。
func Win(prize Prize, walletAmount decimal.Decimal) SpinOutcome {
	return SpinOutcome{Kind: OutcomeWin, Prize: prize, WalletAmount: walletAmount}
}

// Lose 建立一個未中獎結果。
func Lose() SpinOutcome {
	return SpinOutcome{Kind: OutcomeLose}
}

// RateLimited 建立一個次數已達上限的結果。
func RateLimited(message string) SpinOutcome {
	return SpinOutcome{Kind: OutcomeRateLimited, Message: message}
}

// Failed 建立一個失敗結果。
func Failed(reason string, err error) SpinOutcome {
	return SpinOutcome{Kind: OutcomeFailed, Message: reason, Err: err}
}

// Animates 回報此結果是否需要播放輪盤動畫。
func (o SpinOutcome) Animates() bool {
	return o.Kind == OutcomeWin || o.Kind == OutcomeLose
}

// SpinRecord 是一次 spin 結果的稽核紀錄。
type SpinRecord struct {
	ID           int64           `json:"id"`
	VisitorID    string          `json:"visitorID"`
	Outcome      string          `json:"outcome"`
	PrizeID      string          `json:"prizeID,omitempty"`
	PrizeName    string          `json:"prizeName,omitempty"`
	WalletAmount decimal.Decimal `json:"walletAmount"`
	Message      string          `json:"message,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// SpinSummary 統計一個訪客的中獎與未中獎次數。
type SpinSummary struct {
	VisitorID string `json:"visitorID"`
	Wins      int64  `json:"wins"`
	Loses     int64  `json:"loses"`
}
