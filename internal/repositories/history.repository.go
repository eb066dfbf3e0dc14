package repositories

import (
	"context"

	"policybook/internal/database"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/services"

	"gorm.io/gorm"
)

// HistoryRepository is insert-only; there is intentionally no update or delete.
type HistoryRepository interface {
	Create(ctx context.Context, entry *HistoryEntry) error
	ListByContractID(ctx context.Context, contractID int) ([]HistoryEntry, error)
	CountByContractID(ctx context.Context, contractID int) (int64, error)
}

type historyRepository struct {
	db  database.DB
	log logger.Logger
}

func NewHistory(db database.DB) HistoryRepository {
	return &historyRepository{
		db:  db,
		log: logger.New("historyRepository"),
	}
}

func (r *historyRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *historyRepository) Create(ctx context.Context, entry *HistoryEntry) error {
	if err := r.getDB(ctx).Create(entry).Error; err != nil {
		return r.log.Function("Create").Err("failed to create history entry", err,
			"contractID", entry.ContractID, "action", entry.Action)
	}
	return nil
}

// ListByContractID returns entries newest first.
func (r *historyRepository) ListByContractID(ctx context.Context, contractID int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := r.getDB(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries).Error; err != nil {
		return nil, r.log.Function("ListByContractID").
			Err("failed to list history", err, "contractID", contractID)
	}
	return entries, nil
}

func (r *historyRepository) CountByContractID(ctx context.Context, contractID int) (int64, error) {
	var count int64
	if err := r.getDB(ctx).Model(&HistoryEntry{}).Where("contract_id = ?", contractID).Count(&count).Error; err != nil {
		return 0, r.log.Function("CountByContractID").
			Err("failed to count history", err, "contractID", contractID)
	}
	return count, nil
}
