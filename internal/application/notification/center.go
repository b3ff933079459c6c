package notification

import (
	"log/slog"
	"sync"
	"time"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
)

const (
	// DefaultDuration 是通知預設的顯示時間。
	DefaultDuration = 5 * time.Second
	// DefaultTick 是倒數進度的更新間隔。
	DefaultTick = 50 * time.Millisecond
)

// Center 管理單一的使用者通知。
// 同一時間最多只有一則通知與一個倒數計時器；新通知一律先取消舊的計時器。
type Center struct {
	mu        sync.Mutex
	scope     *schedule.Scope
	publisher domain.Publisher
	logger    *slog.Logger
	duration  time.Duration
	tick      time.Duration
	now       func() time.Time

	active   *domain.Notification
	progress float64
	step     float64
	task     *schedule.Task
	gen      uint64
}

// NewCenter 建立一個新的通知中心。duration 與 tick 為 0 時使用預設值。
func NewCenter(scope *schedule.Scope, publisher domain.Publisher, logger *slog.Logger, duration, tick time.Duration) *Center {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Center{
		scope:     scope,
		publisher: publisher,
		logger:    logger.With("component", "notification_center"),
		duration:  duration,
		tick:      tick,
		now:       time.Now,
	}
}

// Show 以預設時間顯示一則通知。
func (c *Center) Show(title, body string, severity domain.Severity) {
	c.ShowFor(title, body, severity, c.duration)
}

// ShowFor 顯示一則通知並取代目前的通知，d 之後自動隱藏。
func (c *Center) ShowFor(title, body string, severity domain.Severity, d time.Duration) {
	if d <= 0 {
		d = c.duration
	}

	c.mu.Lock()
	c.stopLocked()
	c.gen++
	gen := c.gen
	c.active = &domain.Notification{
		Title:     title,
		Body:      body,
		Severity:  severity,
		CreatedAt: c.now(),
		Duration:  d,
	}
	c.progress = 100
	steps := float64(d) / float64(c.tick)
	if steps < 1 {
		steps = 1
	}
	c.step = 100 / steps
	c.task = c.scope.Every(c.tick, func() { c.countdown(gen) })
	payload := domain.PayloadNotification{
		Title:      title,
		Body:       body,
		Severity:   severity,
		Progress:   c.progress,
		DurationMs: d.Milliseconds(),
	}
	c.mu.Unlock()

	c.logger.Debug("notification shown", "title", title, "severity", severity)
	c.publisher.Publish(domain.ActionNotification, payload)
}

// Hide 立即隱藏目前的通知並取消倒數。
func (c *Center) Hide() {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.active = nil
	c.progress = 0
	c.mu.Unlock()

	c.publisher.Publish(domain.ActionNotificationHidden, nil)
}

// Current 回傳目前顯示中的通知與倒數進度。
func (c *Center) Current() (domain.Notification, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.Notification{}, 0, false
	}
	return *c.active, c.progress, true
}

func (c *Center) countdown(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.active == nil {
		c.mu.Unlock()
		return
	}
	c.progress -= c.step
	if c.progress <= 1e-9 {
		c.stopLocked()
		c.active = nil
		c.progress = 0
		c.mu.Unlock()
		c.publisher.Publish(domain.ActionNotificationHidden, nil)
		return
	}
	progress := c.progress
	c.mu.Unlock()

	c.publisher.Publish(domain.ActionNotificationProgress, domain.PayloadNotificationProgress{Progress: progress})
}

// stopLocked 取消目前的倒數計時器，呼叫前必須持有鎖。
func (c *Center) stopLocked() {
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
}
