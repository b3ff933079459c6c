package spin

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/joe_shih/spin-wheel/internal/application/wheel"
	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
	"github.com/shopspring/decimal"
)

// DefaultTimeout 是等待遠端 spin 結果的預設上限。
const DefaultTimeout = 10 * time.Second

// State 是 spin 狀態機的狀態。
type State int

const (
	StateIdle State = iota
	StateBlocked
	StateRequesting
	StateAnimatingWin
	StateAnimatingLose
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBlocked:
		return "blocked"
	case StateRequesting:
		return "requesting"
	case StateAnimatingWin:
		return "animating_win"
	case StateAnimatingLose:
		return "animating_lose"
	default:
		return "unknown"
	}
}

// Resolver 定義了向遠端服務請求 spin 結果的介面。
type Resolver interface {
	Spin(ctx context.Context, visitorID string) (domain.SpinResult, error)
}

// CatalogSource 定義了取得獎品目錄的介面。
type CatalogSource interface {
	Prizes(ctx context.Context) (domain.Catalog, error)
}

// Identity 是 Orchestrator 對訪客身分的唯讀視圖，另外允許更新錢包金額。
type Identity interface {
	Session() domain.VisitorSession
	SetWalletAmount(amount decimal.Decimal)
}

// Notifier 是顯示使用者通知的介面。
type Notifier interface {
	Show(title, body string, severity domain.Severity)
}

// Recorder 記錄每一次 spin 的結果，失敗不影響遊戲流程。
type Recorder interface {
	Record(ctx context.Context, visitorID string, outcome domain.SpinOutcome)
}

// Deps 集合了 Orchestrator 需要的所有依賴。
type Deps struct {
	Resolver  Resolver
	Catalog   CatalogSource
	Identity  Identity
	Notifier  Notifier
	Recorder  Recorder
	Publisher domain.Publisher
	Animator  *wheel.Animator
	RNG       domain.RNG
	Timeout   time.Duration
}

type defaultRNG struct{}

func (defaultRNG) IntN(n int) int { return rand.IntN(n) }

// Orchestrator 是 spin 的狀態機：把關 spin 請求、呼叫遠端服務、解讀結果並驅動輪盤動畫。
// 同一時間最多只有一個 spin 在進行中。
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	catalog   domain.Catalog
	rotation  float64
	card      *domain.PayloadOutcomeCard
	gen       uint64
	cancel    context.CancelFunc
	animation *schedule.Task
	closed    bool
	wg        sync.WaitGroup
}

// NewOrchestrator 建立一個新的 Orchestrator。
func NewOrchestrator(deps Deps, logger *slog.Logger) *Orchestrator {
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	if deps.RNG == nil {
		deps.RNG = defaultRNG{}
	}
	if deps.Publisher == nil {
		deps.Publisher = domain.NopPublisher{}
	}
	return &Orchestrator{
		deps:   deps,
		logger: logger.With("component", "spin_orchestrator"),
	}
}

// LoadCatalog 從遠端服務載入獎品目錄。失敗時目錄為空並顯示錯誤通知。
func (o *Orchestrator) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, domain.ErrSessionClosed
	}
	if o.busyLocked() {
		o.mu.Unlock()
		return nil, domain.ErrSpinBusy
	}
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, o.deps.Timeout)
	defer cancel()
	catalog, err := o.deps.Catalog.Prizes(ctx)
	if err != nil {
		catalog = nil
	}

	o.mu.Lock()
	o.catalog = catalog
	o.mu.Unlock()

	o.deps.Publisher.Publish(domain.ActionPrizes, domain.PayloadPrizes{Prizes: nonNil(catalog)})
	if err != nil {
		o.logger.Warn("load prizes failed", "error", err)
		o.notify("Error", "Failed to load prizes.", domain.SeverityError)
		return nil, err
	}
	o.logger.Info("prizes loaded", "count", len(catalog))
	return catalog, nil
}

// Spin 開始一次 spin。
// 只接受 Idle 或 Blocked 狀態；目錄為空時不做任何事；沒有訪客身分時進入 Blocked 並顯示警告。
// 遠端呼叫在背景執行，結果由狀態機處理，Spin 本身不等待。
func (o *Orchestrator) Spin(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if o.busyLocked() {
		o.mu.Unlock()
		return domain.ErrSpinBusy
	}
	if len(o.catalog) == 0 {
		o.mu.Unlock()
		return domain.ErrCatalogEmpty
	}
	session := o.deps.Identity.Session()
	if !session.HasIdentity() {
		o.state = StateBlocked
		o.mu.Unlock()
		o.logger.Info("spin blocked, no visitor identity")
		o.notify("Oops!", "Please enter your Visitor ID first!", domain.SeverityWarning)
		return domain.ErrIdentityRequired
	}

	o.state = StateRequesting
	o.gen++
	gen := o.gen
	catalog := o.catalog
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.deps.Timeout)
	o.cancel = cancel
	o.wg.Add(1)
	o.mu.Unlock()

	o.logger.Info("spin requested", "visitorID", session.ID)
	o.deps.Publisher.Publish(domain.ActionSpinEnabled, domain.PayloadSpinEnabled{Enabled: false})

	go func() {
		defer o.wg.Done()
		defer cancel()
		raw, err := o.deps.Resolver.Spin(reqCtx, session.ID)
		var outcome domain.SpinOutcome
		if err != nil {
			outcome = classifyError(err)
		} else {
			outcome = Interpret(raw, catalog)
		}
		o.resolve(reqCtx, gen, session.ID, catalog, outcome)
	}()
	return nil
}

// resolve 處理一次 spin 的結果。過期或 session 已關閉的結果會被丟棄。
func (o *Orchestrator) resolve(ctx context.Context, gen uint64, visitorID string, catalog domain.Catalog, outcome domain.SpinOutcome) {
	o.mu.Lock()
	if o.closed || gen != o.gen || o.state != StateRequesting {
		o.mu.Unlock()
		o.logger.Debug("stale spin result dropped", "outcome", outcome.Kind)
		return
	}
	o.cancel = nil

	if !outcome.Animates() {
		o.state = StateIdle
		o.mu.Unlock()
		o.record(ctx, visitorID, outcome)
		o.reportFailure(outcome)
		o.deps.Publisher.Publish(domain.ActionSpinEnabled, domain.PayloadSpinEnabled{Enabled: true})
		return
	}

	index := 0
	if outcome.Kind == domain.OutcomeWin {
		index = catalog.IndexOf(outcome.Prize.ID)
		o.state = StateAnimatingWin
	} else {
		index = o.deps.RNG.IntN(len(catalog))
		o.state = StateAnimatingLose
	}
	// 動畫在鎖內排程，讓狀態與計時器一起生效
	_, task, err := o.deps.Animator.Animate(o.rotation, len(catalog), index, func(final float64) {
		o.complete(gen, outcome, final)
	})
	if err != nil {
		o.state = StateIdle
		o.mu.Unlock()
		o.logger.Error("wheel animation rejected", "index", index, "segments", len(catalog), "error", err)
		o.deps.Publisher.Publish(domain.ActionSpinEnabled, domain.PayloadSpinEnabled{Enabled: true})
		return
	}
	o.animation = task
	o.mu.Unlock()

	o.logger.Info("spin resolved", "visitorID", visitorID, "outcome", outcome.Kind, "index", index)
	o.record(ctx, visitorID, outcome)
}

// complete 是動畫結束的唯一出口，負責提交錢包金額並顯示結果。
func (o *Orchestrator) complete(gen uint64, outcome domain.SpinOutcome, final float64) {
	o.mu.Lock()
	if o.closed || gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.rotation = final
	o.animation = nil
	o.state = StateIdle
	card := o.cardFor(outcome)
	o.card = &card
	o.mu.Unlock()

	if outcome.Kind == domain.OutcomeWin {
		o.deps.Identity.SetWalletAmount(outcome.WalletAmount)
		o.notify("Congratulations!", "You won "+outcome.Prize.Value+"!", domain.SeveritySuccess)
	} else {
		o.notify("Try Again!", "Better luck next time!", domain.SeverityInfo)
	}
	o.deps.Publisher.Publish(domain.ActionOutcomeCard, card)
	o.deps.Publisher.Publish(domain.ActionSpinEnabled, domain.PayloadSpinEnabled{Enabled: true})
	o.logger.Info("spin completed", "outcome", outcome.Kind, "rotation", final)
}

func (o *Orchestrator) cardFor(outcome domain.SpinOutcome) domain.PayloadOutcomeCard {
	if outcome.Kind != domain.OutcomeWin {
		return domain.PayloadOutcomeCard{
			Kind:     outcome.Kind.String(),
			Headline: "Better luck next time!",
		}
	}
	prize := outcome.Prize
	card := domain.PayloadOutcomeCard{
		Kind:         outcome.Kind.String(),
		Prize:        &prize,
		WalletAmount: outcome.WalletAmount,
		Headline:     "You won ₹" + outcome.WalletAmount.String() + " in your 99Gift Wallet!",
		Detail:       prize.Description,
	}
	if !o.deps.Identity.Session().Registered {
		card.Detail = "Your prize will be added after signup."
	}
	return card
}

// reportFailure 為不播放動畫的結果顯示對應的通知。
func (o *Orchestrator) reportFailure(outcome domain.SpinOutcome) {
	if outcome.Kind == domain.OutcomeRateLimited {
		o.logger.Info("spin rate limited", "message", outcome.Message)
		o.notify("Spin Limit Reached", orDefault(outcome.Message, "Try again tomorrow."), domain.SeverityWarning)
		return
	}

	switch {
	case errors.Is(outcome.Err, domain.ErrSpinRejected):
		o.logger.Warn("spin rejected", "message", outcome.Message)
		o.notify("Oops!", orDefault(outcome.Message, "Spin failed."), domain.SeverityError)
	case errors.Is(outcome.Err, domain.ErrPrizeNotInCatalog):
		o.logger.Error("winning prize missing from catalog", "error", outcome.Err)
		o.notify("Error", "Prize not found. Please try again.", domain.SeverityError)
	case errors.Is(outcome.Err, domain.ErrTimeout):
		o.logger.Warn("spin request timed out", "error", outcome.Err)
		o.notify("Error", "Spin request timed out. Try again.", domain.SeverityError)
	case errors.Is(outcome.Err, domain.ErrMalformed):
		o.logger.Error("malformed spin response", "error", outcome.Err)
		o.notify("Error", "Unexpected response. Try again.", domain.SeverityError)
	default:
		o.logger.Warn("spin request failed", "error", outcome.Err)
		o.notify("Error", "Spin failed. Try again.", domain.SeverityError)
	}
}

// Unblock 在取得訪客身分後將 Blocked 狀態回復為 Idle。
func (o *Orchestrator) Unblock() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateBlocked {
		o.state = StateIdle
	}
}

// DismissCard 關閉結果卡，回傳被關閉的卡片內容。
func (o *Orchestrator) DismissCard() (domain.PayloadOutcomeCard, bool) {
	o.mu.Lock()
	if o.card == nil {
		o.mu.Unlock()
		return domain.PayloadOutcomeCard{}, false
	}
	card := *o.card
	o.card = nil
	o.mu.Unlock()

	o.deps.Publisher.Publish(domain.ActionOutcomeCardHidden, nil)
	return card, true
}

// Card 回傳目前顯示中的結果卡。
func (o *Orchestrator) Card() (domain.PayloadOutcomeCard, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.card == nil {
		return domain.PayloadOutcomeCard{}, false
	}
	return *o.card, true
}

// State 回傳目前狀態。
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Rotation 回傳目前 (已正規化) 的輪盤角度。
func (o *Orchestrator) Rotation() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rotation
}

// Catalog 回傳目前載入的獎品目錄。
func (o *Orchestrator) Catalog() domain.Catalog {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.catalog
}

// Busy 回報是否有 spin 正在進行中。
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busyLocked()
}

// Reset 回到 Idle 並清除結果卡，不影響已載入的目錄與輪盤角度。
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.gen++
	o.stopLocked()
	o.state = StateIdle
	hadCard := o.card != nil
	o.card = nil
	o.mu.Unlock()

	if hadCard {
		o.deps.Publisher.Publish(domain.ActionOutcomeCardHidden, nil)
	}
	o.deps.Publisher.Publish(domain.ActionSpinEnabled, domain.PayloadSpinEnabled{Enabled: true})
}

// Close 取消進行中的請求與動畫，之後的結果一律丟棄。
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.stopLocked()
	o.mu.Unlock()
}

// Wait 等待背景中的遠端請求結束。
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) busyLocked() bool {
	return o.state == StateRequesting || o.state == StateAnimatingWin || o.state == StateAnimatingLose
}

func (o *Orchestrator) stopLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if o.animation != nil {
		o.animation.Stop()
		o.animation = nil
	}
}

func (o *Orchestrator) record(ctx context.Context, visitorID string, outcome domain.SpinOutcome) {
	if o.deps.Recorder != nil {
		o.deps.Recorder.Record(context.WithoutCancel(ctx), visitorID, outcome)
	}
}

func (o *Orchestrator) notify(title, body string, severity domain.Severity) {
	if o.deps.Notifier != nil {
		o.deps.Notifier.Show(title, body, severity)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func nonNil(c domain.Catalog) domain.Catalog {
	if c == nil {
		return domain.Catalog{}
	}
	return c
}
