package wheel

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/internal/domain/signaltest"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRotation_FourSegments(t *testing.T) {
	plan, err := PlanRotation(0, 4, 2)
	require.NoError(t, err)

	assert.Equal(t, 90.0, plan.SegmentAngle)
	assert.Equal(t, 135.0, plan.LandingOffset)
	assert.Equal(t, 0.0+1800+135, plan.Total)
	assert.Equal(t, 135.0, plan.Final)
}

func TestPlanRotation_LandsOnSegmentCenter(t *testing.T) {
	for n := 1; n <= 24; n++ {
		half := 360 / float64(n) / 2
		for i := 0; i < n; i++ {
			center := float64(i)*360/float64(n) + half
			for _, current := range []float64{0, 45, 135, 359.5} {
				plan, err := PlanRotation(current, n, i)
				require.NoError(t, err)

				pointer := PointerAngle(plan.Total)
				diff := math.Abs(pointer - center)
				diff = math.Min(diff, 360-diff)
				assert.LessOrEqualf(t, diff, half+1e-9, "n=%d i=%d current=%v pointer=%v", n, i, current, pointer)
				assert.GreaterOrEqualf(t, plan.Total-current, 360.0*(FullSpins-1), "n=%d i=%d must spin at least four and a bit turns", n, i)
				assert.GreaterOrEqual(t, plan.Total, current)
				assert.InDelta(t, Normalize(plan.Total), plan.Final, 1e-9)
			}
		}
	}
}

func TestPlanRotation_InvalidInput(t *testing.T) {
	_, err := PlanRotation(0, 0, 0)
	assert.Error(t, err)

	_, err = PlanRotation(0, 4, 4)
	assert.Error(t, err)

	_, err = PlanRotation(0, 4, -1)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(720))
	assert.Equal(t, 135.0, Normalize(1935))
	assert.Equal(t, 270.0, Normalize(-90))
}

func TestAnimator_CompletesOnceAfterDuration(t *testing.T) {
	clock := schedule.NewFakeClock()
	scope := schedule.NewScope(clock)
	rec := &signaltest.Recorder{}
	animator := NewAnimator(scope, rec, slog.Default(), 4*time.Second, 200*time.Millisecond)

	var finals []float64
	plan, task, err := animator.Animate(0, 4, 2, func(final float64) { finals = append(finals, final) })
	require.NoError(t, err)
	assert.True(t, task.Active())

	payload, ok := rec.Last(domain.ActionWheelRotate)
	require.True(t, ok)
	rotate := payload.(domain.PayloadWheelRotate)
	assert.Equal(t, plan.Total, rotate.Rotation)
	assert.Equal(t, int64(4000), rotate.DurationMs)
	assert.Equal(t, Easing, rotate.Easing)

	clock.Advance(4 * time.Second)
	assert.Empty(t, finals)

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, []float64{135}, finals)

	clock.Advance(10 * time.Second)
	assert.Len(t, finals, 1)

	settle, ok := rec.Last(domain.ActionWheelSettle)
	require.True(t, ok)
	assert.Equal(t, 135.0, settle.(domain.PayloadWheelSettle).Rotation)
}

func TestAnimator_CancelledTaskNeverCompletes(t *testing.T) {
	clock := schedule.NewFakeClock()
	scope := schedule.NewScope(clock)
	animator := NewAnimator(scope, domain.NopPublisher{}, slog.Default(), 0, 0)
	assert.Equal(t, DefaultDuration, animator.Duration())

	called := false
	_, task, err := animator.Animate(90, 8, 3, func(float64) { called = true })
	require.NoError(t, err)
	task.Stop()

	clock.Advance(time.Minute)
	assert.False(t, called)
}
