package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Prize 代表獎品目錄中的一個項目，ID 為其唯一識別。
type Prize struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	// WalletAmount 僅在遠端服務回傳時有效。
	WalletAmount decimal.NullDecimal `json:"walletAmount"`
}

// Catalog 是依序排列的獎品目錄，順序決定每個獎品在輪盤上的扇區位置。
type Catalog []Prize

// IndexOf 回傳指定 ID 的獎品在目錄中的位置，找不到時回傳 -1。
func (c Catalog) IndexOf(id string) int {
	for i, p := range c {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Len 回傳目錄中的扇區數量。
func (c Catalog) Len() int {
	return len(c)
}

// ParseValueAmount 從獎品的顯示金額 (例如 "₹500") 取出數字部分。
// 沒有任何數字時回傳 0。
func ParseValueAmount(value string) decimal.Decimal {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return amount
}
