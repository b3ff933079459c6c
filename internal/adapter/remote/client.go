package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joe_shih/spin-wheel/internal/application/identity"
	"github.com/joe_shih/spin-wheel/internal/application/signup"
	"github.com/joe_shih/spin-wheel/internal/application/spin"
	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/shopspring/decimal"
)

// 遠端服務的路徑
const (
	PathPrizes   = "/admin/spin/prizes"
	PathVisitor  = "/admin/spin/visitor"
	PathSpin     = "/admin/spin/handle/wheel"
	PathRegister = "/auth/register"
)

// DefaultTimeout 是單一 HTTP 請求的預設上限。
const DefaultTimeout = 10 * time.Second

// Client 是使用 resty 呼叫遠端獎品/spin/註冊服務的實作。
type Client struct {
	client *resty.Client
}

var (
	_ identity.Registrar = (*Client)(nil)
	_ spin.Resolver      = (*Client)(nil)
	_ spin.CatalogSource = (*Client)(nil)
	_ signup.Registrar   = (*Client)(nil)
)

// NewClient 建立一個新的 Client。
//
// Params:
//   - baseURL: string, 遠端服務的根網址，例如 http://localhost:8000/api/v1。
//   - apiKey: string, 不為空時以 Bearer token 帶入。
//   - timeout: time.Duration, 單一請求的上限，0 代表使用 DefaultTimeout。
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{client: c}
}

// --- Wire formats ---

// wirePrize 接受 id 或 _id 作為獎品識別。
type wirePrize struct {
	ID           string              `json:"id"`
	MongoID      string              `json:"_id"`
	Name         string              `json:"name"`
	Value        string              `json:"value"`
	Description  string              `json:"description"`
	WalletAmount decimal.NullDecimal `json:"walletAmount"`
}

func (p wirePrize) toDomain() domain.Prize {
	id := p.ID
	if id == "" {
		id = p.MongoID
	}
	return domain.Prize{
		ID:           id,
		Name:         p.Name,
		Value:        p.Value,
		Description:  p.Description,
		WalletAmount: p.WalletAmount,
	}
}

type visitorRequest struct {
	VisitorID string `json:"visitorId"`
}

type visitorResponse struct {
	WalletAmount decimal.NullDecimal `json:"walletAmount"`
	Message      string              `json:"message"`
}

type spinResponse struct {
	Result       string              `json:"result"`
	Status       string              `json:"status"`
	Prize        *wirePrize          `json:"prize"`
	WalletAmount decimal.NullDecimal `json:"walletAmount"`
	Message      string              `json:"message"`
}

// --- 介面實作 ---

// Prizes 取得獎品目錄，接受陣列或依鍵排列的物件。
func (c *Client) Prizes(ctx context.Context) (domain.Catalog, error) {
	resp, err := c.client.R().SetContext(ctx).Get(PathPrizes)
	if err != nil {
		return nil, wrapTransport(err)
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	prizes, err := decodePrizes(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformed, err)
	}

	catalog := make(domain.Catalog, 0, len(prizes))
	for _, p := range prizes {
		catalog = append(catalog, p.toDomain())
	}
	return catalog, nil
}

// RegisterVisitor 登記匿名訪客並取得其錢包餘額。
func (c *Client) RegisterVisitor(ctx context.Context, visitorID string) (domain.VisitorInfo, error) {
	var out visitorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(visitorRequest{VisitorID: visitorID}).
		SetResult(&out).
		ForceContentType("application/json").
		Post(PathVisitor)
	if err != nil {
		return domain.VisitorInfo{}, wrapTransport(err)
	}
	if resp.IsError() {
		return domain.VisitorInfo{}, statusError(resp)
	}

	info := domain.VisitorInfo{WalletAmount: decimal.Zero, Message: out.Message}
	if out.WalletAmount.Valid {
		info.WalletAmount = out.WalletAmount.Decimal
	}
	return info, nil
}

// Spin 請求一次 spin 結果。limit/error 等業務結果以 4xx 回傳時同樣會被解析。
func (c *Client) Spin(ctx context.Context, visitorID string) (domain.SpinResult, error) {
	var out spinResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(visitorRequest{VisitorID: visitorID}).
		SetResult(&out).
		SetError(&out).
		ForceContentType("application/json").
		Post(PathSpin)
	if err != nil {
		return domain.SpinResult{}, wrapTransport(err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return domain.SpinResult{}, statusError(resp)
	}
	if resp.IsError() && out.Result == "" && out.Status == "" {
		return domain.SpinResult{}, statusError(resp)
	}

	result := domain.SpinResult{
		Result:       out.Result,
		Status:       out.Status,
		WalletAmount: out.WalletAmount,
		Message:      out.Message,
	}
	if out.Prize != nil {
		prize := out.Prize.toDomain()
		result.Prize = &prize
	}
	return result, nil
}

// Signup 建立正式帳號。4xx 回應會被解析並帶回 HTTP 狀態碼，由呼叫端判斷是否為重複帳號。
func (c *Client) Signup(ctx context.Context, payload domain.SignupPayload) (domain.SignupResponse, error) {
	var out domain.SignupResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		SetError(&out).
		ForceContentType("application/json").
		Post(PathRegister)
	if err != nil {
		return domain.SignupResponse{}, wrapTransport(err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return domain.SignupResponse{}, statusError(resp)
	}
	out.StatusCode = resp.StatusCode()
	if resp.IsError() {
		out.Success = false
	}
	return out, nil
}

// --- 輔助方法 ---

// wrapTransport 將 resty 的錯誤分類為 ErrTimeout 或 ErrTransport。
func wrapTransport(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}

func statusError(resp *resty.Response) error {
	return fmt.Errorf("%w: %s %s returned %d", domain.ErrTransport, resp.Request.Method, resp.Request.URL, resp.StatusCode())
}
