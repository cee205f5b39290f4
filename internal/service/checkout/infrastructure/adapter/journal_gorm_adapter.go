// internal/service/checkout/infrastructure/adapter/journal_gorm_adapter.go
package adapter

import (
	"context"

	"meridian/internal/service/checkout/domain/port"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CheckoutAttemptModel 是提交/收款尝试的流水表，供排障和对账审计使用。
type CheckoutAttemptModel struct {
	gorm.Model
	SessionID  string `gorm:"index;size:64"`
	OrderID    string `gorm:"index;size:64"`
	Stage      string `gorm:"size:32"`
	Outcome    string `gorm:"size:32"`
	StatusCode int
	Detail     string `gorm:"size:1024"`
}

func (CheckoutAttemptModel) TableName() string {
	return "checkout_attempt"
}

// AttemptJournalGorm 实现了 port.AttemptJournal，流水写入 MySQL。
type AttemptJournalGorm struct {
	db *gorm.DB
}

func NewAttemptJournalGorm(dsn string) (*AttemptJournalGorm, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect attempt journal database")
	}
	if err := db.AutoMigrate(&CheckoutAttemptModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate attempt journal schema")
	}
	return &AttemptJournalGorm{db: db}, nil
}

func (j *AttemptJournalGorm) Record(ctx context.Context, entry port.AttemptEntry) error {
	model := CheckoutAttemptModel{
		SessionID:  entry.SessionID,
		OrderID:    entry.OrderID,
		Stage:      entry.Stage,
		Outcome:    entry.Outcome,
		StatusCode: entry.StatusCode,
		Detail:     entry.Detail,
	}
	if err := j.db.WithContext(ctx).Create(&model).Error; err != nil {
		return errors.Wrap(err, "failed to record checkout attempt")
	}
	return nil
}
