package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"policybook/internal/common"
	"policybook/internal/database"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/services"

	"gorm.io/gorm"
)

const (
	CONTRACT_CACHE_EXPIRY = 6 * time.Hour
)

type ContractRepository interface {
	GetByID(ctx context.Context, id int) (*Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]Contract, error)
	Create(ctx context.Context, contract *Contract) error
	Update(ctx context.Context, id int, contract *Contract) error
	SetArchived(ctx context.Context, id int, archived bool, at time.Time) error
	Delete(ctx context.Context, id int) error
	FindByBusinessKey(ctx context.Context, policyNo, registrationNr string) (*Contract, bool, error)
	Count(ctx context.Context) (int64, error)
}

type contractRepository struct {
	db  database.DB
	log logger.Logger

	evictNow func(ctx context.Context, id int)
}

func NewContract(db database.DB) ContractRepository {
	r := &contractRepository{
		db:  db,
		log: logger.New("contractRepository"),
	}
	r.evictNow = r.removeFromCache
	return r
}

func (r *contractRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *contractRepository) GetByID(ctx context.Context, id int) (*Contract, error) {
	log := r.log.Function("GetByID")

	var contract Contract
	if _, inTx := services.GetTransaction(ctx); !inTx {
		found, err := r.cache(ctx, id).Get(&contract)
		if err != nil {
			log.Warn("failed to read contract from cache", "contractID", id, "error", err)
		}
		if found {
			return &contract, nil
		}
	}

	err := r.getDB(ctx).First(&contract, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("contract", id)
	}
	if err != nil {
		return nil, log.Err("failed to get contract by id", err, "id", id)
	}

	if _, inTx := services.GetTransaction(ctx); !inTx {
		r.addToCache(ctx, &contract)
	}

	return &contract, nil
}

func (r *contractRepository) List(ctx context.Context, filter ContractFilter) ([]Contract, error) {
	log := r.log.Function("List")

	query := r.getDB(ctx).Where("is_archived = ?", filter.Archived)

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(client_name) LIKE ? OR LOWER(policy_no) LIKE ? OR LOWER(registration_nr) LIKE ?",
			like, like, like,
		)
	}

	switch filter.Sort {
	case SortLastUpdatedDesc:
		query = query.Order("last_updated DESC").Order("id DESC")
	default:
		query = query.Order("valid_until ASC").Order("id ASC")
	}

	var contracts []Contract
	if err := query.Find(&contracts).Error; err != nil {
		return nil, log.Err("failed to list contracts", err, "filter", filter)
	}

	return contracts, nil
}

func (r *contractRepository) Create(ctx context.Context, contract *Contract) error {
	log := r.log.Function("Create")

	if contract.Notes == nil {
		contract.Notes = []Note{}
	}

	if err := r.getDB(ctx).Create(contract).Error; err != nil {
		return log.Err("failed to create contract", err, "policyNo", contract.PolicyNo)
	}

	return nil
}

// Update replaces every business column of row id with contract's values.
func (r *contractRepository) Update(ctx context.Context, id int, contract *Contract) error {
	log := r.log.Function("Update")

	if contract.Notes == nil {
		contract.Notes = []Note{}
	}
	contract.ID = id

	result := r.getDB(ctx).Model(&Contract{}).Where("id = ?", id).Select(
		"client_name", "salesperson", "insurance_type", "policy_no",
		"valid_from", "valid_until", "registration_nr",
		"yearly_premium", "payout_value", "notes", "last_updated",
	).Updates(contract)
	if result.Error != nil {
		return log.Err("failed to update contract", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return common.NotFound("contract", id)
	}

	r.evict(ctx, id)
	return nil
}

func (r *contractRepository) SetArchived(ctx context.Context, id int, archived bool, at time.Time) error {
	log := r.log.Function("SetArchived")

	result := r.getDB(ctx).Model(&Contract{}).Where("id = ?", id).Updates(map[string]any{
		"is_archived":  archived,
		"last_updated": at,
	})
	if result.Error != nil {
		return log.Err("failed to set archived flag", result.Error, "id", id, "archived", archived)
	}
	if result.RowsAffected == 0 {
		return common.NotFound("contract", id)
	}

	r.evict(ctx, id)
	return nil
}

func (r *contractRepository) Delete(ctx context.Context, id int) error {
	log := r.log.Function("Delete")

	result := r.getDB(ctx).Delete(&Contract{}, "id = ?", id)
	if result.Error != nil {
		return log.Err("failed to delete contract", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return common.NotFound("contract", id)
	}

	r.evict(ctx, id)
	return nil
}

func (r *contractRepository) FindByBusinessKey(
	ctx context.Context,
	policyNo, registrationNr string,
) (*Contract, bool, error) {
	log := r.log.Function("FindByBusinessKey")

	var contract Contract
	err := r.getDB(ctx).
		Where("policy_no = ? AND registration_nr = ?", policyNo, registrationNr).
		Limit(1).
		Find(&contract).Error
	if err != nil {
		return nil, false, log.Err("failed to find contract by business key", err,
			"policyNo", policyNo, "registrationNr", registrationNr)
	}

	if contract.ID == 0 {
		return nil, false, nil
	}

	return &contract, true, nil
}

func (r *contractRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.getDB(ctx).Model(&Contract{}).Count(&count).Error; err != nil {
		return 0, r.log.Function("Count").Err("failed to count contracts", err)
	}
	return count, nil
}

func (r *contractRepository) cache(ctx context.Context, id int) *database.CacheBuilder {
	return database.NewCacheBuilder(r.db.Cache.Contract, id).WithContext(ctx)
}

func (r *contractRepository) addToCache(ctx context.Context, contract *Contract) {
	if err := r.cache(ctx, contract.ID).
		WithStruct(contract).
		WithTTL(CONTRACT_CACHE_EXPIRY).
		Set(); err != nil {
		r.log.Function("addToCache").
			Warn("failed to add contract to cache", "contractID", contract.ID, "error", err)
	}
}

// evict drops the cached copy once the surrounding transaction commits, so a
// concurrent read cannot re-cache the pre-commit row.
func (r *contractRepository) evict(ctx context.Context, id int) {
	services.AfterCommit(ctx, func(ctx context.Context) {
		r.evictNow(ctx, id)
	})
}

func (r *contractRepository) removeFromCache(ctx context.Context, id int) {
	if err := r.cache(ctx, id).Delete(); err != nil {
		r.log.Function("removeFromCache").
			Warn("failed to remove contract from cache", "contractID", id, "error", err)
	}
}
