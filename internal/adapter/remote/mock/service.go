package mock

import (
	"context"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joe_shih/spin-wheel/internal/application/identity"
	"github.com/joe_shih/spin-wheel/internal/application/signup"
	"github.com/joe_shih/spin-wheel/internal/application/spin"
	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultDailyLimit 是每個訪客每天可以 spin 的次數。
const DefaultDailyLimit = 3

// DefaultWinPercent 是每次 spin 中獎的機率 (百分比)。
const DefaultWinPercent = 40

// DefaultPrizes 是本地開發使用的獎品目錄。
func DefaultPrizes() domain.Catalog {
	return domain.Catalog{
		{ID: "p1", Name: "Amazon Voucher", Value: "₹100", Description: "Amazon gift card"},
		{ID: "p2", Name: "Flipkart Voucher", Value: "₹250", Description: "Flipkart gift card"},
		{ID: "p3", Name: "Swiggy Voucher", Value: "₹500", Description: "Swiggy food voucher"},
		{ID: "p4", Name: "Myntra Voucher", Value: "₹1000", Description: "Myntra fashion voucher"},
		{ID: "p5", Name: "Zomato Voucher", Value: "₹150", Description: "Zomato food voucher"},
		{ID: "p6", Name: "BookMyShow Voucher", Value: "₹200", Description: "Movie tickets"},
	}
}

type randRNG struct{}

func (randRNG) IntN(n int) int { return rand.IntN(n) }

type visitor struct {
	wallet    decimal.Decimal
	day       string
	spins     int
	wins      int
	loses     int
	accountID string
}

// Service 是遠端獎品/spin/註冊服務的記憶體模擬實作，用於測試和本地開發。
type Service struct {
	mu         sync.Mutex
	prizes     domain.Catalog
	visitors   map[string]*visitor
	mobiles    map[string]string
	dailyLimit int
	winPercent int
	rng        domain.RNG
	now        func() time.Time
}

var (
	_ identity.Registrar = (*Service)(nil)
	_ spin.Resolver      = (*Service)(nil)
	_ spin.CatalogSource = (*Service)(nil)
	_ signup.Registrar   = (*Service)(nil)
)

// Option 調整 Service 的行為。
type Option func(*Service)

// WithPrizes 設定獎品目錄。
func WithPrizes(prizes domain.Catalog) Option {
	return func(s *Service) { s.prizes = prizes }
}

// WithDailyLimit 設定每日 spin 次數上限，0 代表不限。
func WithDailyLimit(limit int) Option {
	return func(s *Service) { s.dailyLimit = limit }
}

// WithWinPercent 設定中獎機率。
func WithWinPercent(percent int) Option {
	return func(s *Service) { s.winPercent = percent }
}

// WithRNG 設定亂數來源。
func WithRNG(rng domain.RNG) Option {
	return func(s *Service) { s.rng = rng }
}

// NewService 建立一個新的模擬服務。
func NewService(opts ...Option) *Service {
	s := &Service{
		prizes:     DefaultPrizes(),
		visitors:   make(map[string]*visitor),
		mobiles:    make(map[string]string),
		dailyLimit: DefaultDailyLimit,
		winPercent: DefaultWinPercent,
		rng:        randRNG{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Prizes(ctx context.Context) (domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(domain.Catalog, len(s.prizes))
	copy(out, s.prizes)
	return out, nil
}

func (s *Service) RegisterVisitor(ctx context.Context, visitorID string) (domain.VisitorInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.VisitorInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.visitorLocked(visitorID)
	return domain.VisitorInfo{WalletAmount: v.wallet, Message: "visitor registered"}, nil
}

func (s *Service) Spin(ctx context.Context, visitorID string) (domain.SpinResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SpinResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.visitorLocked(visitorID)
	today := s.now().Format(time.DateOnly)
	if v.day != today {
		v.day = today
		v.spins = 0
	}
	if s.dailyLimit > 0 && v.spins >= s.dailyLimit {
		return domain.SpinResult{Status: "limit", Message: "You have used all your spins for today."}, nil
	}
	v.spins++

	if len(s.prizes) == 0 || s.rng.IntN(100) >= s.winPercent {
		v.loses++
		return domain.SpinResult{Result: "lose"}, nil
	}

	prize := s.prizes[s.rng.IntN(len(s.prizes))]
	amount := domain.ParseValueAmount(prize.Value)
	v.wallet = v.wallet.Add(amount)
	v.wins++
	prize.WalletAmount = decimal.NewNullDecimal(amount)
	return domain.SpinResult{
		Result:       "win",
		Prize:        &prize,
		WalletAmount: decimal.NewNullDecimal(v.wallet),
	}, nil
}

func (s *Service) Signup(ctx context.Context, payload domain.SignupPayload) (domain.SignupResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.SignupResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.mobiles[payload.Mobile]; exists {
		return domain.SignupResponse{
			Success:    false,
			Code:       "USER_EXISTS",
			Message:    "An account with this mobile number already exists.",
			StatusCode: http.StatusConflict,
		}, nil
	}

	accountID := uuid.NewString()
	s.mobiles[payload.Mobile] = accountID

	v := s.visitorLocked(payload.VisitorID)
	v.accountID = accountID
	// 帳號延續訪客的錢包與戰績
	s.visitors[accountID] = v

	return domain.SignupResponse{
		Success: true,
		UserID:  accountID,
		Message: "Account created",
		Data: &domain.AccountStats{
			ID:           accountID,
			WalletAmount: v.wallet,
			TotalWins:    v.wins,
			TotalLoses:   v.loses,
		},
		StatusCode: http.StatusCreated,
	}, nil
}

func (s *Service) visitorLocked(id string) *visitor {
	v, ok := s.visitors[id]
	if !ok {
		v = &visitor{wallet: decimal.Zero}
		s.visitors[id] = v
	}
	return v
}
