package repository

import (
	"context"

	"github.com/GoCowSwap/cowgate/internal/model"
	"gorm.io/gorm"
)

// PostgresOrderJournal persists one row per pipeline invocation.
type PostgresOrderJournal struct {
	db *gorm.DB
}

func NewPostgresOrderJournal(db *gorm.DB) (*PostgresOrderJournal, error) {
	if err := db.AutoMigrate(&model.OrderRecord{}); err != nil {
		return nil, err
	}
	return &PostgresOrderJournal{db: db}, nil
}

func (r *PostgresOrderJournal) Insert(ctx context.Context, rec *model.OrderRecord) error {
	if rec == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *PostgresOrderJournal) List(ctx context.Context, limit int) ([]*model.OrderRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var rows []*model.OrderRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
