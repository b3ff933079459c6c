package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/joe_shih/spin-wheel/internal/application/spin"
	"github.com/joe_shih/spin-wheel/internal/domain"
)

// DefaultLimit 是查詢歷史紀錄時未指定筆數的預設值。
const DefaultLimit = 20

// MaxLimit 是單次查詢歷史紀錄的最大筆數。
const MaxLimit = 200

// QueryError 代表查詢歷史紀錄時的錯誤，Code 對應 HTTP 狀態碼。
type QueryError struct {
	Code    int
	Message string
}

// Repository 定義了 spin 紀錄的持久化介面。
type Repository interface {
	// Append 新增一筆紀錄。
	Append(ctx context.Context, record domain.SpinRecord) error
	// List 依時間由新到舊列出訪客的紀錄。
	List(ctx context.Context, visitorID string, limit int) ([]domain.SpinRecord, error)
	// Summary 統計訪客的中獎與未中獎次數。
	Summary(ctx context.Context, visitorID string) (domain.SpinSummary, error)
}

// Provider 定義了讀取歷史紀錄的介面，用於 API 服務層。
type Provider interface {
	GetHistory(ctx context.Context, visitorID string, limit int) ([]domain.SpinRecord, *QueryError)
	GetSummary(ctx context.Context, visitorID string) (domain.SpinSummary, *QueryError)
}

// Service 負責記錄每一次 spin 的結果並提供查詢。
// repo 為 nil 時不記錄，查詢會回傳錯誤。
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ Provider      = (*Service)(nil)
	_ spin.Recorder = (*Service)(nil)
)

// NewService 建立一個新的歷史紀錄服務實例。
func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With("component", "history_service"),
		now:    time.Now,
	}
}

// Record 將一次 spin 結果寫入紀錄。寫入失敗只記錄 log，不影響遊戲流程。
func (s *Service) Record(ctx context.Context, visitorID string, outcome domain.SpinOutcome) {
	if s.repo == nil {
		return
	}
	record := domain.SpinRecord{
		VisitorID: visitorID,
		Outcome:   outcome.Kind.String(),
		Message:   outcome.Message,
		CreatedAt: s.now(),
	}
	if outcome.Kind == domain.OutcomeWin {
		record.PrizeID = outcome.Prize.ID
		record.PrizeName = outcome.Prize.Name
		record.WalletAmount = outcome.WalletAmount
	}
	if outcome.Err != nil && record.Message == "" {
		record.Message = outcome.Err.Error()
	}

	if err := s.repo.Append(ctx, record); err != nil {
		s.logger.Error("record spin failed", "visitorID", visitorID, "outcome", record.Outcome, "error", err)
	}
}

// GetHistory 查詢訪客最近的 spin 紀錄。
func (s *Service) GetHistory(ctx context.Context, visitorID string, limit int) ([]domain.SpinRecord, *QueryError) {
	if s.repo == nil {
		return nil, &QueryError{Code: 500, Message: "Local database not enabled"}
	}
	if visitorID == "" {
		return nil, &QueryError{Code: 400, Message: "visitorID is required"}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	records, err := s.repo.List(ctx, visitorID, limit)
	if err != nil {
		s.logger.Error("get history failed", "visitorID", visitorID, "error", err)
		return nil, &QueryError{Code: 500, Message: "Database error"}
	}
	return records, nil
}

// GetSummary 統計訪客的中獎與未中獎次數。
func (s *Service) GetSummary(ctx context.Context, visitorID string) (domain.SpinSummary, *QueryError) {
	if s.repo == nil {
		return domain.SpinSummary{}, &QueryError{Code: 500, Message: "Local database not enabled"}
	}
	if visitorID == "" {
		return domain.SpinSummary{}, &QueryError{Code: 400, Message: "visitorID is required"}
	}

	summary, err := s.repo.Summary(ctx, visitorID)
	if err != nil {
		s.logger.Error("get summary failed", "visitorID", visitorID, "error", err)
		return domain.SpinSummary{}, &QueryError{Code: 500, Message: "Database error"}
	}
	return summary, nil
}
