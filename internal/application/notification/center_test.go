package notification_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/joe_shih/spin-wheel/internal/application/notification"
	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/internal/domain/signaltest"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCenter() (*notification.Center, *schedule.FakeClock, *schedule.Scope, *signaltest.Recorder) {
	clock := schedule.NewFakeClock()
	scope := schedule.NewScope(clock)
	rec := &signaltest.Recorder{}
	return notification.NewCenter(scope, rec, slog.Default(), 0, 0), clock, scope, rec
}

func TestCenter_CountsDownAndHides(t *testing.T) {
	center, clock, scope, rec := newCenter()

	center.Show("Welcome!", "Get ready to spin the wheel!", domain.SeveritySuccess)
	n, progress, ok := center.Current()
	require.True(t, ok)
	assert.Equal(t, "Welcome!", n.Title)
	assert.Equal(t, domain.SeveritySuccess, n.Severity)
	assert.Equal(t, 100.0, progress)
	assert.Equal(t, 1, scope.Len())

	clock.Advance(2500 * time.Millisecond)
	_, progress, ok = center.Current()
	require.True(t, ok)
	assert.InDelta(t, 50.0, progress, 0.001)

	clock.Advance(2500 * time.Millisecond)
	_, _, ok = center.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, scope.Len())
	assert.Equal(t, 1, rec.Count(domain.ActionNotificationHidden))
	// 100 個 50ms 的步進，最後一步直接隱藏
	assert.Equal(t, 99, rec.Count(domain.ActionNotificationProgress))
}

func TestCenter_NewNotificationReplacesCountdown(t *testing.T) {
	center, clock, scope, rec := newCenter()

	center.Show("A", "first", domain.SeverityInfo)
	clock.Advance(time.Second)

	center.Show("B", "second", domain.SeverityWarning)
	assert.Equal(t, 1, scope.Len(), "only one countdown may be alive")
	_, progress, _ := center.Current()
	assert.Equal(t, 100.0, progress)

	// A 的倒數原本會在 5s 時結束，B 必須仍在顯示
	clock.Advance(4 * time.Second)
	n, _, ok := center.Current()
	require.True(t, ok)
	assert.Equal(t, "B", n.Title)

	clock.Advance(time.Second)
	_, _, ok = center.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, rec.Count(domain.ActionNotificationHidden))
	assert.Equal(t, 0, clock.Pending())
}

func TestCenter_HideCancelsCountdown(t *testing.T) {
	center, clock, scope, rec := newCenter()

	center.ShowFor("Error", "Spin failed. Try again.", domain.SeverityError, time.Second)
	center.Hide()
	assert.Equal(t, 0, scope.Len())

	rec.Reset()
	clock.Advance(2 * time.Second)
	assert.Empty(t, rec.All())

	// 沒有通知時 Hide 不會再送出訊號
	center.Hide()
	assert.Empty(t, rec.All())
}

func TestCenter_CustomDurationStepGranularity(t *testing.T) {
	center, clock, _, _ := newCenter()

	center.ShowFor("Oops!", "Please enter your Visitor ID first!", domain.SeverityWarning, time.Second)
	clock.Advance(500 * time.Millisecond)
	_, progress, ok := center.Current()
	require.True(t, ok)
	assert.InDelta(t, 50.0, progress, 0.001)

	clock.Advance(500 * time.Millisecond)
	_, _, ok = center.Current()
	assert.False(t, ok)
}

func TestCenter_ClosedScopeStopsCountdown(t *testing.T) {
	center, clock, scope, rec := newCenter()

	center.Show("A", "body", domain.SeverityInfo)
	scope.Close()
	rec.Reset()

	clock.Advance(10 * time.Second)
	assert.Empty(t, rec.All())
}
