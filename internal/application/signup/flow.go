package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
	"github.com/shopspring/decimal"
)

// DefaultTimeout 是等待遠端註冊結果的預設上限。
const DefaultTimeout = 10 * time.Second

// DefaultSuccessDelay 是註冊成功後延遲顯示成功視窗的時間。
const DefaultSuccessDelay = 500 * time.Millisecond

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// State 是註冊流程的狀態。
type State int

const (
	StateHidden State = iota
	StateEditing
	StateSubmitting
	StateSucceeded
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Registrar 定義了向遠端服務建立正式帳號的介面。
type Registrar interface {
	Signup(ctx context.Context, payload domain.SignupPayload) (domain.SignupResponse, error)
}

// Identity 是註冊流程對訪客身分的操作介面。
type Identity interface {
	Session() domain.VisitorSession
	Upgrade(ctx context.Context, accountID string) (domain.IdentityUpgrade, error)
	SetWalletAmount(amount decimal.Decimal)
}

// Notifier 是顯示使用者通知的介面。
type Notifier interface {
	Show(title, body string, severity domain.Severity)
}

// Deps 集合了 Flow 需要的所有依賴。
type Deps struct {
	Registrar Registrar
	Identity  Identity
	Notifier  Notifier
	Publisher domain.Publisher
	Timeout   time.Duration
	// Scope 為 nil 時成功視窗立即顯示。
	Scope        *schedule.Scope
	SuccessDelay time.Duration
}

// Flow 負責收集與驗證註冊資料、送出註冊，並把取得的正式帳號 ID 交回 Identity。
type Flow struct {
	deps     Deps
	logger   *slog.Logger
	validate *validator.Validate

	mu      sync.Mutex
	state   State
	form    domain.SignupForm
	closed  bool
	success *schedule.Task
}

// NewValidator 建立一個註冊了 in_mobile 規則的 validator。
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("in_mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register in_mobile validation: %v", err))
	}
	return v
}

// NewFlow 建立一個新的註冊流程。
func NewFlow(deps Deps, logger *slog.Logger) *Flow {
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	if deps.SuccessDelay <= 0 {
		deps.SuccessDelay = DefaultSuccessDelay
	}
	if deps.Publisher == nil {
		deps.Publisher = domain.NopPublisher{}
	}
	return &Flow{
		deps:     deps,
		logger:   logger.With("component", "signup_flow"),
		validate: NewValidator(),
		form:     domain.NewSignupForm(),
	}
}

// Validate 檢查表單是否可以送出，目前只驗證手機號碼。
func (f *Flow) Validate(form domain.SignupForm) error {
	if err := f.validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &domain.ValidationError{Field: strings.ToLower(fieldErrs[0].Field()), Reason: "Invalid Indian mobile number."}
		}
		return fmt.Errorf("validate signup form: %w", err)
	}
	return nil
}

// Open 顯示註冊表單，保留之前輸入的內容。
func (f *Flow) Open() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return domain.ErrSubmitBusy
	}
	f.state = StateEditing
	form := f.form
	f.mu.Unlock()

	f.deps.Publisher.Publish(domain.ActionSignupForm, domain.PayloadSignupForm{Visible: true, Form: form})
	return nil
}

// Hide 關閉註冊表單，送出中不可關閉。
func (f *Flow) Hide() error {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return domain.ErrSubmitBusy
	case StateEditing:
		f.state = StateHidden
		form := f.form
		f.mu.Unlock()
		f.deps.Publisher.Publish(domain.ActionSignupForm, domain.PayloadSignupForm{Visible: false, Form: form})
		return nil
	default:
		f.mu.Unlock()
		return nil
	}
}

// Submit 驗證並送出註冊表單。
// 同一時間只允許一個送出請求；失敗時表單保留使用者輸入的內容。
//
// Params:
//   - ctx: context.Context, 遠端呼叫會再套上 Timeout。
//   - form: domain.SignupForm, 使用者輸入的表單。
//
// Returns:
//   - domain.SignupResponse: 遠端服務的回應。
//   - error: 驗證失敗為 *domain.ValidationError，帳號已存在為 domain.ErrDuplicateAccount。
func (f *Flow) Submit(ctx context.Context, form domain.SignupForm) (domain.SignupResponse, error) {
	form.Phone = strings.TrimSpace(form.Phone)
	if form.Gender == "" {
		form.Gender = domain.DefaultGender
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.SignupResponse{}, domain.ErrSessionClosed
	}
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return domain.SignupResponse{}, domain.ErrSubmitBusy
	case StateEditing:
	default:
		f.mu.Unlock()
		return domain.SignupResponse{}, domain.ErrSignupClosed
	}
	f.form = form
	if err := f.Validate(form); err != nil {
		f.mu.Unlock()
		f.notify("Validation Error", "Invalid Indian mobile number.", domain.SeverityError)
		return domain.SignupResponse{}, err
	}
	f.state = StateSubmitting
	f.mu.Unlock()

	payload := domain.NewSignupPayload(form, f.deps.Identity.Session())
	f.logger.Info("signup submitted", "visitorID", payload.VisitorID)

	callCtx, cancel := context.WithTimeout(ctx, f.deps.Timeout)
	resp, err := f.deps.Registrar.Signup(callCtx, payload)
	cancel()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return resp, domain.ErrSessionClosed
	}
	if err != nil || !resp.Success {
		f.state = StateEditing
		f.mu.Unlock()
		return resp, f.reportFailure(resp, err)
	}
	f.state = StateSucceeded
	f.form = domain.NewSignupForm()
	f.mu.Unlock()

	f.reconcile(ctx, resp)
	f.deps.Publisher.Publish(domain.ActionSignupForm, domain.PayloadSignupForm{Visible: false, Form: domain.NewSignupForm()})
	f.scheduleSuccess()
	f.notify("Success!", "Account created successfully!", domain.SeveritySuccess)
	return resp, nil
}

// scheduleSuccess 在 SuccessDelay 之後顯示成功視窗。期間若被關閉或重置則不顯示。
func (f *Flow) scheduleSuccess() {
	if f.deps.Scope == nil {
		f.deps.Publisher.Publish(domain.ActionSuccessModal, domain.PayloadSuccessModal{Visible: true})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopSuccessLocked()
	f.success = f.deps.Scope.After(f.deps.SuccessDelay, func() {
		f.mu.Lock()
		f.success = nil
		visible := f.state == StateSucceeded && !f.closed
		f.mu.Unlock()
		if visible {
			f.deps.Publisher.Publish(domain.ActionSuccessModal, domain.PayloadSuccessModal{Visible: true})
		}
	})
}

func (f *Flow) stopSuccessLocked() {
	if f.success != nil {
		f.success.Stop()
		f.success = nil
	}
}

// reconcile 將正式帳號 ID 與錢包金額交回 Identity。
func (f *Flow) reconcile(ctx context.Context, resp domain.SignupResponse) {
	if accountID := resp.AccountID(); accountID != "" {
		if _, err := f.deps.Identity.Upgrade(ctx, accountID); err != nil {
			f.logger.Error("upgrade visitor identity failed", "accountID", accountID, "error", err)
		}
	} else {
		f.logger.Warn("signup response has no account id")
	}
	if resp.Data != nil {
		f.deps.Identity.SetWalletAmount(resp.Data.WalletAmount)
	}
	f.logger.Info("signup succeeded", "accountID", resp.AccountID())
}

func (f *Flow) reportFailure(resp domain.SignupResponse, err error) error {
	switch {
	case err != nil && errors.Is(err, domain.ErrTimeout):
		f.logger.Warn("signup timed out", "error", err)
		f.notify("Error", "Signup timed out. Please try again.", domain.SeverityError)
		return err
	case err != nil:
		f.logger.Warn("signup request failed", "error", err)
		f.notify("Error", "Signup failed. Please try again.", domain.SeverityError)
		return err
	case resp.Duplicate():
		f.logger.Info("signup rejected, account exists", "code", resp.Code)
		f.notify("Account Exists", orDefault(resp.Message, "An account with this mobile number already exists."), domain.SeverityWarning)
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccount, resp.Message)
	default:
		f.logger.Warn("signup rejected", "code", resp.Code, "message", resp.Message)
		f.notify("Signup Failed", orDefault(resp.Message, "Please try again."), domain.SeverityError)
		return fmt.Errorf("%w: %s", domain.ErrSignupRejected, resp.Message)
	}
}

// DismissSuccess 關閉註冊成功視窗並重置表單。
func (f *Flow) DismissSuccess() {
	f.mu.Lock()
	if f.state != StateSucceeded {
		f.mu.Unlock()
		return
	}
	f.state = StateHidden
	f.form = domain.NewSignupForm()
	f.stopSuccessLocked()
	f.mu.Unlock()

	f.deps.Publisher.Publish(domain.ActionSuccessModal, domain.PayloadSuccessModal{Visible: false})
}

// Reset 回到 Hidden 並清空表單。送出中的請求結果仍會被處理。
func (f *Flow) Reset() {
	f.mu.Lock()
	if f.state != StateSubmitting {
		f.state = StateHidden
	}
	f.form = domain.NewSignupForm()
	f.stopSuccessLocked()
	f.mu.Unlock()

	f.deps.Publisher.Publish(domain.ActionSignupForm, domain.PayloadSignupForm{Visible: false, Form: domain.NewSignupForm()})
	f.deps.Publisher.Publish(domain.ActionSuccessModal, domain.PayloadSuccessModal{Visible: false})
}

// Close 結束流程，之後的請求結果一律丟棄。
func (f *Flow) Close() {
	f.mu.Lock()
	f.closed = true
	f.stopSuccessLocked()
	f.mu.Unlock()
}

// State 回傳目前狀態。
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Form 回傳目前保留的表單內容。
func (f *Flow) Form() domain.SignupForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

func (f *Flow) notify(title, body string, severity domain.Severity) {
	if f.deps.Notifier != nil {
		f.deps.Notifier.Show(title, body, severity)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
