package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joe_shih/spin-wheel/internal/application/identity"
	"github.com/joe_shih/spin-wheel/internal/application/notification"
	"github.com/joe_shih/spin-wheel/internal/application/signup"
	"github.com/joe_shih/spin-wheel/internal/application/spin"
	"github.com/joe_shih/spin-wheel/internal/application/wheel"
	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
)

// DefaultModalDelay 是關閉中獎結果卡到顯示註冊表單之間的延遲。
const DefaultModalDelay = 500 * time.Millisecond

// Remote 是遠端獎品/spin/註冊服務需要實現的所有介面。
type Remote interface {
	identity.Registrar
	spin.Resolver
	spin.CatalogSource
	signup.Registrar
}

// Settings 是一個 session 的時間設定。為 0 的欄位使用各元件的預設值。
type Settings struct {
	IdentityKey      string
	Animation        time.Duration
	Settle           time.Duration
	Notification     time.Duration
	NotificationTick time.Duration
	PromptDelay      time.Duration
	ModalDelay       time.Duration
	IdentityTimeout  time.Duration
	SpinTimeout      time.Duration
	SignupTimeout    time.Duration
}

// Deps 集合了所有 session 共用的依賴。
type Deps struct {
	Store    identity.Store
	Remote   Remote
	Recorder spin.Recorder
	Clock    schedule.Clock
	RNG      domain.RNG
	Settings Settings
}

// Session 是一條連線擁有的遊戲流程，組合了通知、訪客身分、輪盤、spin 與註冊五個元件，
// 並協調它們之間的畫面切換。
type Session struct {
	id          string
	deviceToken string
	deps        Deps
	publisher   domain.Publisher
	logger      *slog.Logger

	scope         *schedule.Scope
	notifications *notification.Center
	identity      *identity.Service
	orchestrator  *spin.Orchestrator
	signup        *signup.Flow

	mu     sync.Mutex
	modal  *schedule.Task
	closed bool
}

// New 建立一個新的 session。所有計時器都掛在 session 自己的 Scope 上，Close 時一併取消。
//
// Params:
//   - id: string, session 的識別碼 (通常是連線 ID)。
//   - deviceToken: string, 瀏覽器的裝置識別碼，決定持久化欄位的 key。
//   - deps: Deps, 共用的依賴。
//   - publisher: domain.Publisher, 推送 UI 訊號的目標。
//   - logger: *slog.Logger, 日誌。
//
// Returns:
//   - *Session: 尚未啟動的 session，需呼叫 Start。
func New(id, deviceToken string, deps Deps, publisher domain.Publisher, logger *slog.Logger) *Session {
	if deps.Clock == nil {
		deps.Clock = schedule.RealClock()
	}
	if deps.Settings.ModalDelay <= 0 {
		deps.Settings.ModalDelay = DefaultModalDelay
	}
	if deps.Settings.IdentityKey == "" {
		deps.Settings.IdentityKey = "visitorId"
	}
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	logger = logger.With("sessionID", id, "deviceToken", deviceToken)
	cfg := deps.Settings
	scope := schedule.NewScope(deps.Clock)

	center := notification.NewCenter(scope, publisher, logger, cfg.Notification, cfg.NotificationTick)
	visitor := identity.NewService(identity.Deps{
		Store:       deps.Store,
		Key:         deviceToken + ":" + cfg.IdentityKey,
		Registrar:   deps.Remote,
		Notifier:    center,
		Publisher:   publisher,
		Scope:       scope,
		PromptDelay: cfg.PromptDelay,
		Timeout:     cfg.IdentityTimeout,
	}, logger)
	animator := wheel.NewAnimator(scope, publisher, logger, cfg.Animation, cfg.Settle)
	orchestrator := spin.NewOrchestrator(spin.Deps{
		Resolver:  deps.Remote,
		Catalog:   deps.Remote,
		Identity:  visitor,
		Notifier:  center,
		Recorder:  deps.Recorder,
		Publisher: publisher,
		Animator:  animator,
		RNG:       deps.RNG,
		Timeout:   cfg.SpinTimeout,
	}, logger)
	flow := signup.NewFlow(signup.Deps{
		Registrar: deps.Remote,
		Identity:  visitor,
		Notifier:  center,
		Publisher: publisher,
		Timeout:   cfg.SignupTimeout,
		// 成功視窗與註冊表單使用相同的延遲
		Scope:        scope,
		SuccessDelay: cfg.ModalDelay,
	}, logger)

	return &Session{
		id:            id,
		deviceToken:   deviceToken,
		deps:          deps,
		publisher:     publisher,
		logger:        logger.With("component", "session"),
		scope:         scope,
		notifications: center,
		identity:      visitor,
		orchestrator:  orchestrator,
		signup:        flow,
	}
}

// --- 生命週期 ---

// Start 載入已儲存的訪客身分與獎品目錄，並通知前端 session 已就緒。
// 身分或目錄載入失敗時 session 仍可使用，錯誤已轉成通知。
func (s *Session) Start(ctx context.Context) error {
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	s.publisher.Publish(domain.ActionSessionReady, domain.PayloadSessionReady{SessionID: s.id, DeviceToken: s.deviceToken})

	if _, err := s.identity.Load(ctx); err != nil {
		s.logger.Warn("session started without stored identity", "error", err)
	}
	if _, err := s.orchestrator.LoadCatalog(ctx); err != nil {
		s.logger.Warn("session started without prizes", "error", err)
	}
	s.publisher.Publish(domain.ActionSpinEnabled, domain.PayloadSpinEnabled{Enabled: true})
	s.logger.Info("session started")
	return nil
}

// Close 取消所有計時器與進行中的請求。之後的回呼都不會再改變 session 的狀態。
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.modal = nil
	s.mu.Unlock()

	s.orchestrator.Close()
	s.signup.Close()
	s.scope.Close()
	s.logger.Info("session closed")
}

// --- 使用者操作 ---

// SubmitVisitorID 儲存使用者輸入的訪客 ID，成功後解除 spin 的封鎖。
func (s *Session) SubmitVisitorID(ctx context.Context, raw string) (domain.VisitorSession, error) {
	if s.isClosed() {
		return domain.VisitorSession{}, domain.ErrSessionClosed
	}
	session, err := s.identity.Submit(ctx, raw)
	if err != nil {
		return session, err
	}
	s.orchestrator.Unblock()
	return session, nil
}

// Spin 開始一次 spin。註冊表單即將顯示、顯示中或結果卡顯示中時拒絕。
func (s *Session) Spin(ctx context.Context) error {
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	if s.modalPending() {
		return domain.ErrScreenBusy
	}
	if s.signup.State() != signup.StateHidden {
		return domain.ErrScreenBusy
	}
	if _, shown := s.orchestrator.Card(); shown {
		return domain.ErrScreenBusy
	}
	return s.orchestrator.Spin(ctx)
}

// CloseCard 關閉結果卡。沒中獎時清除訪客身分，讓流程從輸入 ID 重新開始。
func (s *Session) CloseCard(ctx context.Context) error {
	card, ok := s.orchestrator.DismissCard()
	if !ok {
		return nil
	}
	if card.Kind != domain.OutcomeLose.String() {
		return nil
	}
	s.logger.Info("lose card closed, restarting funnel")
	return s.identity.Clear(ctx)
}

// ClaimPrize 關閉中獎結果卡，並在 ModalDelay 之後顯示註冊表單。
func (s *Session) ClaimPrize() error {
	card, ok := s.orchestrator.Card()
	if !ok || card.Kind != domain.OutcomeWin.String() {
		return domain.ErrScreenBusy
	}
	s.orchestrator.DismissCard()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.modal != nil {
		s.modal.Stop()
	}
	s.modal = s.scope.After(s.deps.Settings.ModalDelay, func() {
		s.mu.Lock()
		s.modal = nil
		s.mu.Unlock()
		if err := s.signup.Open(); err != nil {
			s.logger.Warn("open signup form failed", "error", err)
		}
	})
	return nil
}

// CloseSignup 關閉註冊表單，保留已輸入的內容。
func (s *Session) CloseSignup() error {
	s.cancelModal()
	return s.signup.Hide()
}

// SubmitSignup 送出註冊表單。
func (s *Session) SubmitSignup(ctx context.Context, form domain.SignupForm) (domain.SignupResponse, error) {
	if s.isClosed() {
		return domain.SignupResponse{}, domain.ErrSessionClosed
	}
	return s.signup.Submit(ctx, form)
}

// CloseSuccess 關閉註冊成功視窗。
func (s *Session) CloseSuccess() {
	s.signup.DismissSuccess()
}

// DismissNotification 立即關閉目前的通知。
func (s *Session) DismissNotification() {
	s.notifications.Hide()
}

// Reset 清除訪客身分與所有畫面狀態，回到初始畫面。
func (s *Session) Reset(ctx context.Context) error {
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	s.cancelModal()
	s.orchestrator.Reset()
	s.signup.Reset()
	s.notifications.Hide()
	if err := s.identity.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("session reset")
	return nil
}

// --- 查詢 ---

// ID 回傳 session 識別碼。
func (s *Session) ID() string {
	return s.id
}

// DeviceToken 回傳裝置識別碼。
func (s *Session) DeviceToken() string {
	return s.deviceToken
}

// Visitor 回傳目前訪客 session 的快照。
func (s *Session) Visitor() domain.VisitorSession {
	return s.identity.Session()
}

// SpinState 回傳 spin 狀態機目前的狀態。
func (s *Session) SpinState() spin.State {
	return s.orchestrator.State()
}

// SignupState 回傳註冊流程目前的狀態。
func (s *Session) SignupState() signup.State {
	return s.signup.State()
}

// Wait 等待背景中的 spin 請求結束。
func (s *Session) Wait() {
	s.orchestrator.Wait()
}

func (s *Session) cancelModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modal != nil {
		s.modal.Stop()
		s.modal = nil
	}
}

func (s *Session) modalPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal != nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
