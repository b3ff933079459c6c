package domain

import "time"

// Severity 定義了通知訊息的嚴重程度。
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification 是一則會自動消失的使用者通知。
type Notification struct {
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	Severity  Severity      `json:"severity"`
	CreatedAt time.Time     `json:"createdAt"`
	Duration  time.Duration `json:"-"`
}
