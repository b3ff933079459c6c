// Package signaltest 提供測試用的 domain.Publisher 實作。
package signaltest

import (
	"sync"

	"github.com/joe_shih/spin-wheel/internal/domain"
)

// Recorder 記錄所有推送過的訊號。
type Recorder struct {
	mu      sync.Mutex
	signals []domain.Envelope
}

var _ domain.Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(action domain.Action, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, domain.Envelope{Action: string(action), Payload: payload})
}

// All 回傳所有訊號的複本。
func (r *Recorder) All() []domain.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Envelope, len(r.signals))
	copy(out, r.signals)
	return out
}

// Count 回傳指定訊號出現的次數。
func (r *Recorder) Count(action domain.Action) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.signals {
		if s.Action == string(action) {
			n++
		}
	}
	return n
}

// Last 回傳最後一個指定訊號的 payload。
func (r *Recorder) Last(action domain.Action) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.signals) - 1; i >= 0; i-- {
		if r.signals[i].Action == string(action) {
			return r.signals[i].Payload, true
		}
	}
	return nil, false
}

// Reset 清除所有紀錄。
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = nil
}
