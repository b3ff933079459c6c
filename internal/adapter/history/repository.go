package history

import (
	"context"
	"fmt"
	"time"

	"github.com/joe_shih/spin-wheel/internal/application/history"
	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SpinRecordModel 對應資料庫的 spin_records 表，用於紀錄每次 spin 的結果。
type SpinRecordModel struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	VisitorID    string          `gorm:"column:visitor_id;index"`
	Outcome      string          `gorm:"column:outcome;size:16"`
	PrizeID      string          `gorm:"column:prize_id"`
	PrizeName    string          `gorm:"column:prize_name"`
	WalletAmount decimal.Decimal `gorm:"column:wallet_amount;type:decimal(18,4)"`
	Message      string          `gorm:"column:message"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
}

func (SpinRecordModel) TableName() string {
	return "spin_records"
}

// Repository 以 gorm 實現 history.Repository。
type Repository struct {
	db *gorm.DB
}

var _ history.Repository = (*Repository)(nil)

// NewRepository 建立一個新的 Repository。
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate 建立或更新 spin_records 表。
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&SpinRecordModel{})
}

func (r *Repository) Append(ctx context.Context, record domain.SpinRecord) error {
	model := SpinRecordModel{
		VisitorID:    record.VisitorID,
		Outcome:      record.Outcome,
		PrizeID:      record.PrizeID,
		PrizeName:    record.PrizeName,
		WalletAmount: record.WalletAmount,
		Message:      record.Message,
		CreatedAt:    record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("insert spin record: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, visitorID string, limit int) ([]domain.SpinRecord, error) {
	var models []SpinRecordModel
	err := r.db.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list spin records: %w", err)
	}

	records := make([]domain.SpinRecord, len(models))
	for i, m := range models {
		records[i] = domain.SpinRecord{
			ID:           m.ID,
			VisitorID:    m.VisitorID,
			Outcome:      m.Outcome,
			PrizeID:      m.PrizeID,
			PrizeName:    m.PrizeName,
			WalletAmount: m.WalletAmount,
			Message:      m.Message,
			CreatedAt:    m.CreatedAt,
		}
	}
	return records, nil
}

func (r *Repository) Summary(ctx context.Context, visitorID string) (domain.SpinSummary, error) {
	summary := domain.SpinSummary{VisitorID: visitorID}
	base := r.db.WithContext(ctx).Model(&SpinRecordModel{}).Where("visitor_id = ?", visitorID)

	if err := base.Session(&gorm.Session{}).Where("outcome = ?", domain.OutcomeWin.String()).Count(&summary.Wins).Error; err != nil {
		return summary, fmt.Errorf("count wins: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("outcome = ?", domain.OutcomeLose.String()).Count(&summary.Loses).Error; err != nil {
		return summary, fmt.Errorf("count loses: %w", err)
	}
	return summary, nil
}
