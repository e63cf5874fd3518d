package repository

import (
	"context"
	"time"

	"stokledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.StockTransaction) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.StockTransaction, error)
	// Delete returns gorm.ErrRecordNotFound when the entry no longer
	// exists, so a reversal racing another delete of the same entry
	// aborts instead of restoring the quantity twice.
	Delete(ctx context.Context, id uuid.UUID) error
	// ListForProduct returns entries by insertion recency, optionally
	// restricted to business dates in [from, to).
	ListForProduct(ctx context.Context, orgID, productID uuid.UUID, from, to *time.Time, page, limit int) ([]model.StockTransaction, int64, error)
	// ListChronological returns every entry for a product ordered by the
	// composite key (date, created_at) ascending. Backdated entries sort
	// by business date first, insertion order second.
	ListChronological(ctx context.Context, orgID, productID uuid.UUID) ([]model.StockTransaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.StockTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.StockTransaction, error) {
	var tx model.StockTransaction
	if err := GetDB(ctx, r.db).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.StockTransaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepository) ListForProduct(ctx context.Context, orgID, productID uuid.UUID, from, to *time.Time, page, limit int) ([]model.StockTransaction, int64, error) {
	var txs []model.StockTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransaction{}).
		Where("organization_id = ? AND product_id = ?", orgID, productID)
	if from != nil {
		db = db.Where("date >= ?", *from)
	}
	if to != nil {
		db = db.Where("date < ?", *to)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *transactionRepository) ListChronological(ctx context.Context, orgID, productID uuid.UUID) ([]model.StockTransaction, error) {
	var txs []model.StockTransaction
	if err := GetDB(ctx, r.db).
		Where("organization_id = ? AND product_id = ?", orgID, productID).
		Order("date ASC, created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
