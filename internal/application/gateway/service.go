package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/joe_shih/spin-wheel/internal/application/session"
	"github.com/joe_shih/spin-wheel/internal/domain"
)

// DefaultQueueSize 是每條連線可以排隊等待處理的操作數量。
const DefaultQueueSize = 32

const sessionTag = "session"

var (
	errHelloRequired  = errors.New("send hello first")
	errAlreadyStarted = errors.New("session already started")
	errQueueFull      = errors.New("too many pending requests")
)

// 確保 Service 在編譯時期就實現了 EventHandler 介面。
var _ EventHandler = (*Service)(nil)

// PublisherFactory 為一條連線建立推送 UI 訊號的 Publisher。
type PublisherFactory func(client domain.Client) domain.Publisher

type job struct {
	action ActionType
	run    func(ctx context.Context) error
}

// entry 是一條連線的 session 與它的操作佇列。
// 同一條連線的操作依收到的順序逐一執行，不會阻塞 hub 的事件迴圈。
type entry struct {
	client    domain.Client
	publisher domain.Publisher
	session   *session.Session
	jobs      chan job
	ctx       context.Context
	cancel    context.CancelFunc
}

// Service 將連線事件路由到各自的 Session。
type Service struct {
	ctx          context.Context
	deps         session.Deps
	newPublisher PublisherFactory
	root         *slog.Logger
	logger       *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	wg      sync.WaitGroup
}

// NewService 創建一個新的 gateway 實例。
//
// Params:
//   - ctx: context.Context, 所有 session 的上層 context，取消時進行中的請求一併取消。
//   - deps: session.Deps, 所有 session 共用的依賴。
//   - newPublisher: PublisherFactory, 為每條連線建立 Publisher。
//   - logger: *slog.Logger, 日誌。
//
// Returns:
//   - *Service: 新的 gateway 實例。
func NewService(ctx context.Context, deps session.Deps, newPublisher PublisherFactory, logger *slog.Logger) *Service {
	return &Service{
		ctx:          ctx,
		deps:         deps,
		newPublisher: newPublisher,
		root:         logger,
		logger:       logger.With("component", "gateway"),
		entries:      make(map[string]*entry),
	}
}

func (s *Service) HandleConnect(client domain.Client) {
	s.logger.Info("client connected", "clientID", client.ID(), "ip", client.GetIP())
}

func (s *Service) HandleDisconnect(client domain.Client) {
	s.logger.Info("client disconnected", "clientID", client.ID())
	s.mu.Lock()
	e, ok := s.entries[client.ID()]
	if ok {
		delete(s.entries, client.ID())
		close(e.jobs)
	}
	s.mu.Unlock()
	if ok {
		e.cancel()
		e.session.Close()
	}
}

func (s *Service) HandleMessage(client domain.Client, message []byte) {
	// 先解析 action 層
	var base struct {
		Action ActionType      `json:"action"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &base); err != nil {
		s.logger.Warn("failed to unmarshal message", "error", err, "clientID", client.ID())
		client.Kick("invalid message format")
		return
	}

	s.logger.Debug("message received", "action", base.Action, "clientID", client.ID())

	if base.Action == Hello {
		var payload helloPayload
		if len(base.Data) > 0 {
			if err := json.Unmarshal(base.Data, &payload); err != nil {
				s.reject(client, base.Action, fmt.Errorf("invalid hello payload: %w", err))
				return
			}
		}
		s.handleHello(client, payload.DeviceToken)
		return
	}

	var run func(ctx context.Context, sess *session.Session) error
	switch base.Action {
	case SubmitVisitorID:
		var payload visitorPayload
		if err := json.Unmarshal(base.Data, &payload); err != nil {
			s.reject(client, base.Action, fmt.Errorf("invalid visitor payload: %w", err))
			return
		}
		run = func(ctx context.Context, sess *session.Session) error {
			_, err := sess.SubmitVisitorID(ctx, payload.VisitorID)
			return err
		}
	case Spin:
		run = func(ctx context.Context, sess *session.Session) error {
			return sess.Spin(ctx)
		}
	case CloseCard:
		run = func(ctx context.Context, sess *session.Session) error {
			return sess.CloseCard(ctx)
		}
	case ClaimPrize:
		run = func(_ context.Context, sess *session.Session) error {
			return sess.ClaimPrize()
		}
	case CloseSignup:
		run = func(_ context.Context, sess *session.Session) error {
			return sess.CloseSignup()
		}
	case SubmitSignup:
		var form domain.SignupForm
		if err := json.Unmarshal(base.Data, &form); err != nil {
			s.reject(client, base.Action, fmt.Errorf("invalid signup payload: %w", err))
			return
		}
		run = func(ctx context.Context, sess *session.Session) error {
			_, err := sess.SubmitSignup(ctx, form)
			return err
		}
	case CloseSuccess:
		run = func(_ context.Context, sess *session.Session) error {
			sess.CloseSuccess()
			return nil
		}
	case DismissNotification:
		run = func(_ context.Context, sess *session.Session) error {
			sess.DismissNotification()
			return nil
		}
	case Reset:
		run = func(ctx context.Context, sess *session.Session) error {
			return sess.Reset(ctx)
		}
	default:
		s.logger.Warn("unknown action", "action", base.Action, "clientID", client.ID())
		s.reject(client, base.Action, fmt.Errorf("unknown action %q", base.Action))
		return
	}

	tag, _ := client.GetTag(sessionTag)
	sess, _ := tag.(*session.Session)
	if sess == nil {
		s.reject(client, base.Action, errHelloRequired)
		return
	}
	s.enqueue(client, job{action: base.Action, run: func(ctx context.Context) error {
		return run(ctx, sess)
	}})
}

// Shutdown 關閉所有 session 並等待佇列中的操作結束。
func (s *Service) Shutdown() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*entry)
	for _, e := range entries {
		close(e.jobs)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.cancel()
		e.session.Close()
	}
	s.wg.Wait()
	s.logger.Info("gateway shut down", "sessions", len(entries))
}

// Len 回傳目前的 session 數量。
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Service) handleHello(client domain.Client, deviceToken string) {
	s.mu.Lock()
	if _, exists := s.entries[client.ID()]; exists {
		s.mu.Unlock()
		s.reject(client, Hello, errAlreadyStarted)
		return
	}
	if deviceToken == "" {
		deviceToken = uuid.NewString()
	}
	publisher := s.newPublisher(client)
	sess := session.New(client.ID(), deviceToken, s.deps, publisher, s.root)
	ctx, cancel := context.WithCancel(s.ctx)
	e := &entry{
		client:    client,
		publisher: publisher,
		session:   sess,
		jobs:      make(chan job, DefaultQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.entries[client.ID()] = e
	s.wg.Add(1)
	go s.work(e)
	s.mu.Unlock()

	client.SetTag(sessionTag, sess)
	s.logger.Info("session created", "clientID", client.ID(), "deviceToken", deviceToken)
	s.enqueue(client, job{action: Hello, run: sess.Start})
}

func (s *Service) enqueue(client domain.Client, j job) {
	s.mu.Lock()
	e, ok := s.entries[client.ID()]
	if !ok {
		s.mu.Unlock()
		s.reject(client, j.action, errHelloRequired)
		return
	}
	select {
	case e.jobs <- j:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		s.reject(client, j.action, errQueueFull)
	}
}

// work 依序執行一條連線的操作，直到佇列被關閉。
func (s *Service) work(e *entry) {
	defer s.wg.Done()
	for j := range e.jobs {
		if err := j.run(e.ctx); err != nil {
			s.logger.Debug("action failed", "action", j.action, "clientID", e.client.ID(), "error", err)
			e.publisher.Publish(domain.ActionError, domain.PayloadError{Error: err.Error()})
		}
	}
}

func (s *Service) reject(client domain.Client, action ActionType, err error) {
	s.logger.Debug("action rejected", "action", action, "clientID", client.ID(), "error", err)
	s.newPublisher(client).Publish(domain.ActionError, domain.PayloadError{Error: err.Error()})
}
