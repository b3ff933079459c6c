package history

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnsupportedDriver 表示設定了不支援的資料庫 driver。
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Open 依設定連線資料庫並建立 spin_records 表。driver 為空時回傳 nil，代表不記錄歷史。
//
// Params:
//   - driver: string, 目前只支援 "mysql"。
//   - dsn: string, 資料庫連線字串。
//
// Returns:
//   - *Repository: 可直接使用的 Repository，未啟用時為 nil。
//   - error: 連線或建表失敗時回傳。
func Open(driver, dsn string) (*Repository, error) {
	if driver == "" {
		return nil, nil
	}
	if driver != "mysql" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to mysql: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	repo := NewRepository(db)
	if err := repo.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate spin records: %w", err)
	}
	return repo, nil
}

// Close 關閉底層資料庫連線。
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
