package schedule

import (
	"sync"
	"time"
)

// Stopper 是單一計時器的停止介面，*time.Timer 已實現此介面。
type Stopper interface {
	Stop() bool
}

// Clock 抽象出計時器的建立方式，讓測試可以用 FakeClock 手動推進時間。
type Clock interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// RealClock 回傳以標準 time 套件實作的 Clock。
func RealClock() Clock {
	return realClock{}
}

// Task 代表一個由 Scope 管理的排程工作 (一次性或週期性)。
type Task struct {
	scope *Scope
	id    uint64
	mu    sync.Mutex
	timer Stopper
	done  bool
}

// Stop 取消此工作。若工作尚未執行完畢 (或週期性工作仍在運行) 則回傳 true。
func (t *Task) Stop() bool {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return false
	}
	t.done = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	t.scope.remove(t.id)
	return true
}

// Active 回報此工作是否仍會觸發。
func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.done
}

// finish 將一次性工作標記為完成，回傳 false 代表工作已被取消。
func (t *Task) finish() bool {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return false
	}
	t.done = true
	t.mu.Unlock()
	t.scope.remove(t.id)
	return true
}

// Scope 管理一組計時器的生命週期。Close 之後所有尚未觸發的工作都不會再執行，
// 之後排入的工作也會直接被丟棄。
type Scope struct {
	clock  Clock
	mu     sync.Mutex
	tasks  map[uint64]*Task
	nextID uint64
	closed bool
}

// NewScope 建立一個新的 Scope；clock 為 nil 時使用 RealClock。
func NewScope(clock Clock) *Scope {
	if clock == nil {
		clock = RealClock()
	}
	return &Scope{
		clock: clock,
		tasks: make(map[uint64]*Task),
	}
}

// After 在 d 之後執行 f 一次。
func (s *Scope) After(d time.Duration, f func()) *Task {
	t, ok := s.newTask()
	if !ok {
		return t
	}
	t.mu.Lock()
	t.timer = s.clock.AfterFunc(d, func() {
		if t.finish() {
			f()
		}
	})
	t.mu.Unlock()
	return t
}

// Every 每隔 d 執行一次 f，直到工作被 Stop 或 Scope 被 Close。
func (s *Scope) Every(d time.Duration, f func()) *Task {
	t, ok := s.newTask()
	if !ok {
		return t
	}
	var fire func()
	fire = func() {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			return
		}
		// 先重新排程再執行 f，讓 f 內呼叫 Stop 可以取消下一次觸發
		t.timer = s.clock.AfterFunc(d, fire)
		t.mu.Unlock()
		f()
	}
	t.mu.Lock()
	t.timer = s.clock.AfterFunc(d, fire)
	t.mu.Unlock()
	return t
}

// Close 取消所有工作，之後的排程請求一律忽略。
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.tasks = make(map[uint64]*Task)
	s.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
}

// Len 回傳目前仍存活的工作數量。
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Closed 回報 Scope 是否已關閉。
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Scope) newTask() (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &Task{scope: s, id: s.nextID}
	if s.closed {
		t.done = true
		return t, false
	}
	s.tasks[t.id] = t
	return t, true
}

func (s *Scope) remove(id uint64) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
}
