package wheel

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
)

const (
	// FullSpins 是每次 spin 至少要轉的完整圈數。
	FullSpins = 5
	// DefaultDuration 是輪盤轉動的轉場時間。
	DefaultDuration = 4 * time.Second
	// Easing 是轉場使用的緩動曲線。
	Easing = "ease-out"
)

// Plan 是一次轉動的計算結果。
type Plan struct {
	Start         float64
	Total         float64
	Final         float64
	Index         int
	Segments      int
	SegmentAngle  float64
	LandingOffset float64
}

// PlanRotation 計算讓輪盤停在 index 扇區中心所需的總旋轉角度。
//
// Params:
//   - current: float64, 目前 (已正規化) 的旋轉角度。
//   - segments: int, 扇區數量，必須大於 0。
//   - index: int, 目標扇區，範圍 [0, segments)。
//
// Returns:
//   - Plan: 旋轉計畫，Final 為 Total 正規化到 [0, 360) 後的值。
//   - error: 參數不合法時回傳。
func PlanRotation(current float64, segments, index int) (Plan, error) {
	if segments <= 0 {
		return Plan{}, fmt.Errorf("wheel has no segments")
	}
	if index < 0 || index >= segments {
		return Plan{}, fmt.Errorf("segment index %d out of range [0, %d)", index, segments)
	}

	anglePerSegment := 360 / float64(segments)
	landingOffset := 360 - float64(index)*anglePerSegment - anglePerSegment/2
	// 扣掉目前角度的餘數，輪盤停在 0 度時就是單純的 current + 1800 + offset
	total := current + 360*FullSpins + landingOffset - Normalize(current)

	return Plan{
		Start:         current,
		Total:         total,
		Final:         Normalize(total),
		Index:         index,
		Segments:      segments,
		SegmentAngle:  anglePerSegment,
		LandingOffset: landingOffset,
	}, nil
}

// Normalize 將角度換算到 [0, 360)。
func Normalize(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// PointerAngle 回傳指針 (位於 0 度) 在旋轉後所指向的輪盤角度。
func PointerAngle(rotation float64) float64 {
	return Normalize(360 - Normalize(rotation))
}

// Animator 負責發出轉動訊號，並在轉場結束後通知呼叫端。
type Animator struct {
	scope     *schedule.Scope
	publisher domain.Publisher
	logger    *slog.Logger
	duration  time.Duration
	settle    time.Duration
}

// NewAnimator 建立一個新的 Animator。
// settle 是轉場結束後到歸位之間的額外等待時間。
func NewAnimator(scope *schedule.Scope, publisher domain.Publisher, logger *slog.Logger, duration, settle time.Duration) *Animator {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if settle < 0 {
		settle = 0
	}
	return &Animator{
		scope:     scope,
		publisher: publisher,
		logger:    logger.With("component", "wheel_animator"),
		duration:  duration,
		settle:    settle,
	}
}

// Animate 將輪盤轉到 index 扇區，完成後呼叫 done 一次並帶入正規化後的角度。
// 回傳的 Task 可用來在完成前取消動畫；取消後 done 不會被呼叫。
func (a *Animator) Animate(current float64, segments, index int, done func(final float64)) (Plan, *schedule.Task, error) {
	plan, err := PlanRotation(current, segments, index)
	if err != nil {
		return Plan{}, nil, err
	}

	a.logger.Debug("wheel rotating", "index", index, "segments", segments, "total", plan.Total)
	a.publisher.Publish(domain.ActionWheelRotate, domain.PayloadWheelRotate{
		Rotation:   plan.Total,
		DurationMs: a.duration.Milliseconds(),
		Easing:     Easing,
		Index:      index,
	})

	task := a.scope.After(a.duration+a.settle, func() {
		a.publisher.Publish(domain.ActionWheelSettle, domain.PayloadWheelSettle{Rotation: plan.Final})
		done(plan.Final)
	})
	return plan, task, nil
}

// Duration 回傳從開始轉動到呼叫 done 的總時間。
func (a *Animator) Duration() time.Duration {
	return a.duration + a.settle
}
