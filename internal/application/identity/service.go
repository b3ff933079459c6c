package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
	"github.com/shopspring/decimal"
)

// DefaultPromptDelay 是沒有已儲存 ID 時，延遲顯示輸入提示的時間。
const DefaultPromptDelay = time.Second

// Store 定義了單一鍵值持久化儲存需要實現的介面。
type Store interface {
	// Get 讀取 key 的值，found 為 false 代表不存在。
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set 寫入 key 的值。
	Set(ctx context.Context, key, value string) error
	// Delete 刪除 key。
	Delete(ctx context.Context, key string) error
}

// Registrar 定義了向遠端服務登記匿名訪客的介面。
type Registrar interface {
	RegisterVisitor(ctx context.Context, visitorID string) (domain.VisitorInfo, error)
}

// Notifier 是顯示使用者通知的介面。
type Notifier interface {
	Show(title, body string, severity domain.Severity)
}

// Deps 集合了 Service 需要的所有依賴。
type Deps struct {
	Store       Store
	Key         string
	Registrar   Registrar
	Notifier    Notifier
	Publisher   domain.Publisher
	Scope       *schedule.Scope
	PromptDelay time.Duration
	Timeout     time.Duration
}

// record 是儲存在持久化欄位中的內容。
type record struct {
	ID         string `json:"id"`
	Registered bool   `json:"registered"`
}

// Service 擁有訪客識別碼與其持久化，是唯一可以寫入該欄位的元件。
type Service struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	session  domain.VisitorSession
	prompt   *schedule.Task
	upgrades []domain.IdentityUpgrade
}

// NewService 建立一個新的訪客身分服務。
func NewService(deps Deps, logger *slog.Logger) *Service {
	if deps.PromptDelay <= 0 {
		deps.PromptDelay = DefaultPromptDelay
	}
	if deps.Publisher == nil {
		deps.Publisher = domain.NopPublisher{}
	}
	return &Service{
		deps:   deps,
		logger: logger.With("component", "visitor_identity", "key", deps.Key),
		now:    time.Now,
	}
}

// Load 在啟動時讀取已儲存的識別碼。
// 找到時 session 立即可用；找不到時在 PromptDelay 後顯示輸入提示。
func (s *Service) Load(ctx context.Context) (domain.VisitorSession, error) {
	raw, found, err := s.deps.Store.Get(ctx, s.deps.Key)
	if err != nil {
		s.logger.Error("load visitor identity failed", "error", err)
		s.schedulePrompt()
		return domain.VisitorSession{}, fmt.Errorf("load visitor identity: %w", err)
	}

	rec, ok := decodeRecord(raw)
	if !found || !ok {
		s.mu.Lock()
		s.session = domain.VisitorSession{}
		s.mu.Unlock()
		s.schedulePrompt()
		return domain.VisitorSession{}, nil
	}

	s.mu.Lock()
	s.session = domain.VisitorSession{ID: rec.ID, Registered: rec.Registered, WalletAmount: decimal.Zero}
	session := s.session
	s.mu.Unlock()

	s.logger.Info("visitor identity restored", "visitorID", rec.ID, "registered", rec.Registered)
	s.publishIdentity(session)
	s.deps.Publisher.Publish(domain.ActionIdentityPrompt, domain.PayloadIdentityPrompt{Visible: false})
	return session, nil
}

// Submit 驗證並儲存使用者輸入的識別碼，並帶回遠端服務回報的錢包餘額。
func (s *Service) Submit(ctx context.Context, rawID string) (domain.VisitorSession, error) {
	id := strings.TrimSpace(rawID)
	if id == "" {
		s.deps.Publisher.Publish(domain.ActionIdentityRejected, domain.PayloadIdentityRejected{Hint: "Please enter your Visitor ID"})
		return domain.VisitorSession{}, &domain.ValidationError{Field: "visitorId", Reason: "must not be empty"}
	}

	if err := s.persist(ctx, record{ID: id}); err != nil {
		s.logger.Error("persist visitor identity failed", "visitorID", id, "error", err)
		s.notify("Error", "Could not save your Visitor ID. Try again.", domain.SeverityError)
		return domain.VisitorSession{}, err
	}

	wallet := decimal.Zero
	if s.deps.Registrar != nil {
		info, err := s.register(ctx, id)
		if err != nil {
			// 登記失敗不影響遊玩，只是無法取得既有餘額
			s.logger.Warn("register visitor failed", "visitorID", id, "error", err)
		} else {
			wallet = info.WalletAmount
		}
	}

	s.mu.Lock()
	s.stopPromptLocked()
	s.session = domain.VisitorSession{ID: id, Registered: false, WalletAmount: wallet}
	session := s.session
	s.mu.Unlock()

	s.logger.Info("visitor identity submitted", "visitorID", id, "walletAmount", wallet)
	s.deps.Publisher.Publish(domain.ActionIdentityPrompt, domain.PayloadIdentityPrompt{Visible: false})
	s.publishIdentity(session)
	s.notify("Welcome!", "Get ready to spin the wheel!", domain.SeveritySuccess)
	return session, nil
}

// Upgrade 將匿名訪客 ID 換成正式帳號 ID 並持久化，回傳這次轉換的稽核紀錄。
func (s *Service) Upgrade(ctx context.Context, accountID string) (domain.IdentityUpgrade, error) {
	id := strings.TrimSpace(accountID)
	if id == "" {
		return domain.IdentityUpgrade{}, &domain.ValidationError{Field: "accountId", Reason: "must not be empty"}
	}
	if err := s.persist(ctx, record{ID: id, Registered: true}); err != nil {
		s.logger.Error("persist account identity failed", "accountID", id, "error", err)
		return domain.IdentityUpgrade{}, err
	}

	s.mu.Lock()
	upgrade := domain.IdentityUpgrade{From: s.session.ID, To: id, At: s.now()}
	s.session.ID = id
	s.session.Registered = true
	s.upgrades = append(s.upgrades, upgrade)
	session := s.session
	s.mu.Unlock()

	s.logger.Info("visitor identity upgraded", "from", upgrade.From, "to", upgrade.To)
	s.publishIdentity(session)
	return upgrade, nil
}

// Clear 刪除已儲存的識別碼並重置 session，之後會再次顯示輸入提示。
func (s *Service) Clear(ctx context.Context) error {
	if err := s.deps.Store.Delete(ctx, s.deps.Key); err != nil {
		s.logger.Error("clear visitor identity failed", "error", err)
		return fmt.Errorf("clear visitor identity: %w", err)
	}

	s.mu.Lock()
	s.stopPromptLocked()
	from := s.session.ID
	s.session = domain.VisitorSession{WalletAmount: decimal.Zero}
	session := s.session
	s.mu.Unlock()

	s.logger.Info("visitor identity cleared", "visitorID", from)
	s.publishIdentity(session)
	s.deps.Publisher.Publish(domain.ActionIdentityPrompt, domain.PayloadIdentityPrompt{Visible: true})
	return nil
}

// Session 回傳目前 session 的快照。
func (s *Service) Session() domain.VisitorSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SetWalletAmount 更新 session 中的錢包金額 (不持久化)。
func (s *Service) SetWalletAmount(amount decimal.Decimal) {
	s.mu.Lock()
	s.session.WalletAmount = amount
	session := s.session
	s.mu.Unlock()
	s.publishIdentity(session)
}

// Upgrades 回傳所有身分升級紀錄。
func (s *Service) Upgrades() []domain.IdentityUpgrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.IdentityUpgrade, len(s.upgrades))
	copy(out, s.upgrades)
	return out
}

func (s *Service) register(ctx context.Context, id string) (domain.VisitorInfo, error) {
	if s.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()
	}
	return s.deps.Registrar.RegisterVisitor(ctx, id)
}

func (s *Service) persist(ctx context.Context, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode visitor identity: %w", err)
	}
	if err := s.deps.Store.Set(ctx, s.deps.Key, string(data)); err != nil {
		return fmt.Errorf("persist visitor identity: %w", err)
	}
	return nil
}

func (s *Service) schedulePrompt() {
	if s.deps.Scope == nil {
		s.deps.Publisher.Publish(domain.ActionIdentityPrompt, domain.PayloadIdentityPrompt{Visible: true})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPromptLocked()
	s.prompt = s.deps.Scope.After(s.deps.PromptDelay, func() {
		s.deps.Publisher.Publish(domain.ActionIdentityPrompt, domain.PayloadIdentityPrompt{Visible: true})
	})
}

func (s *Service) stopPromptLocked() {
	if s.prompt != nil {
		s.prompt.Stop()
		s.prompt = nil
	}
}

func (s *Service) publishIdentity(session domain.VisitorSession) {
	s.deps.Publisher.Publish(domain.ActionIdentity, domain.PayloadIdentity{
		VisitorID:    session.ID,
		Registered:   session.Registered,
		WalletAmount: session.WalletAmount,
	})
}

func (s *Service) notify(title, body string, severity domain.Severity) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Show(title, body, severity)
	}
}

// decodeRecord 解析持久化內容；舊格式的純字串視為匿名訪客 ID。
func decodeRecord(raw string) (record, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return record{}, false
	}
	if strings.HasPrefix(raw, "{") {
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err == nil && strings.TrimSpace(rec.ID) != "" {
			rec.ID = strings.TrimSpace(rec.ID)
			return rec, true
		}
		return record{}, false
	}
	return record{ID: raw}, true
}
