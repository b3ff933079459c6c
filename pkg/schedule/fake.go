package schedule

import (
	"sort"
	"sync"
	"time"
)

// FakeClock 是手動推進的 Clock，僅供測試使用。
// 計時器只會在 Advance 中依到期順序同步觸發。
type FakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *FakeClock
	deadline time.Duration
	seq      uint64
	fn       func()
}

var _ Clock = (*FakeClock)(nil)

// NewFakeClock 建立一個時間從 0 開始的 FakeClock。
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// AfterFunc 實現 Clock 介面。
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, deadline: c.now + d, seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance 將時間往前推進 d，並依序觸發所有到期的計時器 (包含觸發過程中新排入且同樣到期的)。
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			if c.timers[i].deadline == c.timers[j].deadline {
				return c.timers[i].seq < c.timers[j].seq
			}
			return c.timers[i].deadline < c.timers[j].deadline
		})
		if len(c.timers) == 0 || c.timers[0].deadline > target {
			c.now = target
			c.mu.Unlock()
			return
		}
		next := c.timers[0]
		c.timers = c.timers[1:]
		c.now = next.deadline
		c.mu.Unlock()

		next.fn()
	}
}

// Now 回傳從建立以來經過的模擬時間。
func (c *FakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending 回傳尚未觸發的計時器數量。
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}
