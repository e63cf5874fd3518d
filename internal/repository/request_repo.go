package repository

import (
	"context"
	"time"

	"stokledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.StockRequest) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.StockRequest, error)
	// FindByIDForUpdate locks the request row so concurrent fulfill and
	// cancel attempts serialize and exactly one wins.
	FindByIDForUpdate(ctx context.Context, orgID, id uuid.UUID) (*model.StockRequest, error)
	Update(ctx context.Context, req *model.StockRequest) error
	List(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]model.StockRequest, int64, error)
	// DeleteTerminalBefore removes fulfilled/cancelled requests created
	// before the cutoff and returns how many rows went away.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.StockRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.StockRequest, error) {
	var req model.StockRequest
	if err := GetDB(ctx, r.db).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDForUpdate(ctx context.Context, orgID, id uuid.UUID) (*model.StockRequest, error) {
	var req model.StockRequest
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) Update(ctx context.Context, req *model.StockRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *requestRepository) List(ctx context.Context, orgID uuid.UUID, status string, page, limit int) ([]model.StockRequest, int64, error) {
	var requests []model.StockRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.StockRequest{}).Where("organization_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Product").Preload("Requester").Preload("Fulfiller").
		Where("organization_id = ?", orgID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("status IN ? AND created_at < ?", []string{model.RequestFulfilled, model.RequestCancelled}, cutoff).
		Delete(&model.StockRequest{})
	return res.RowsAffected, res.Error
}
