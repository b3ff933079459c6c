package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultGender 是註冊表單性別欄位的預設值。
const DefaultGender = "male"

// SignupForm 是註冊表單輸入的資料。
// 只有 Phone 在送出前驗證，其他欄位的格式交由遠端服務判斷。
type SignupForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone" validate:"in_mobile"`
	Password string `json:"password"`
	City     string `json:"city"`
	Gender   string `json:"gender"`
}

// NewSignupForm 回傳一份空白表單。
func NewSignupForm() SignupForm {
	return SignupForm{Gender: DefaultGender}
}

// SignupPayload 是送往遠端服務的註冊請求內容，由表單與目前訪客資料組合而成。
type SignupPayload struct {
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Mobile       string          `json:"mobile"`
	Password     string          `json:"password"`
	City         string          `json:"city"`
	Gender       string          `json:"gender"`
	VisitorID    string          `json:"visitorId"`
	WalletAmount decimal.Decimal `json:"walletAmount"`
}

// NewSignupPayload 將表單與訪客 session 組合成註冊請求。
func NewSignupPayload(form SignupForm, session VisitorSession) SignupPayload {
	return SignupPayload{
		Name:         form.Name,
		Email:        form.Email,
		Mobile:       form.Phone,
		Password:     form.Password,
		City:         form.City,
		Gender:       form.Gender,
		VisitorID:    session.ID,
		WalletAmount: session.WalletAmount,
	}
}

// AccountStats 是註冊成功後回傳的帳號統計。
type AccountStats struct {
	ID           string          `json:"id,omitempty"`
	WalletAmount decimal.Decimal `json:"walletAmount"`
	TotalWins    int             `json:"totalWins"`
	TotalLoses   int             `json:"totalLoses"`
}

// SignupResponse 是遠端服務對註冊請求的回應。
type SignupResponse struct {
	Success bool          `json:"success"`
	UserID  string        `json:"userId,omitempty"`
	Message string        `json:"message,omitempty"`
	Code    string        `json:"code,omitempty"`
	Data    *AccountStats `json:"data,omitempty"`
	// StatusCode 由 adapter 填入 HTTP 狀態碼。
	StatusCode int `json:"-"`
}

var duplicateAccountCodes = map[string]bool{
	"DUPLICATE_ACCOUNT": true,
	"USER_EXISTS":       true,
	"ACCOUNT_EXISTS":    true,
}

// Duplicate 回報此回應是否代表帳號已存在。
func (r SignupResponse) Duplicate() bool {
	return r.StatusCode == 409 || duplicateAccountCodes[strings.ToUpper(r.Code)]
}

// AccountID 回傳正式帳號 ID，優先採用 UserID。
func (r SignupResponse) AccountID() string {
	if r.UserID != "" {
		return r.UserID
	}
	if r.Data != nil {
		return r.Data.ID
	}
	return ""
}
