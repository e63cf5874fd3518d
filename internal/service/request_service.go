package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"stokledger/internal/model"
	"stokledger/internal/repository"
	ws "stokledger/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRequestDTO struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Note      string `json:"note"`
}

type RequestFilter struct {
	Status string // PENDING, FULFILLED, CANCELLED or empty for all
	Page   int
	Limit  int
}

type StockRequestResponse struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name,omitempty"`
	RequestedBy   string  `json:"requested_by"`
	RequesterName string  `json:"requester_name,omitempty"`
	Quantity      int     `json:"quantity"`
	Note          string  `json:"note"`
	Status        string  `json:"status"`
	FulfilledBy   *string `json:"fulfilled_by"`
	FulfilledAt   *string `json:"fulfilled_at"`
	TransactionID *string `json:"transaction_id"`
	CancelledBy   *string `json:"cancelled_by"`
	CancelledAt   *string `json:"cancelled_at"`
	CreatedAt     string  `json:"created_at"`
}

type FulfillResult struct {
	Request       StockRequestResponse `json:"request"`
	TransactionID string               `json:"transaction_id"`
	NewBalance    int                  `json:"new_balance"`
}

// DefaultTerminalRetention is how long fulfilled/cancelled requests are
// kept before the sweep removes them, counted from creation.
const DefaultTerminalRetention = 30

// --- Interface ---

type RequestService interface {
	Create(ctx context.Context, auth AuthContext, req CreateRequestDTO) (StockRequestResponse, error)
	Fulfill(ctx context.Context, auth AuthContext, requestID string) (FulfillResult, error)
	Cancel(ctx context.Context, auth AuthContext, requestID string) (StockRequestResponse, error)
	List(ctx context.Context, auth AuthContext, filter RequestFilter) ([]StockRequestResponse, int64, error)
	CleanupOldTerminal(ctx context.Context, olderThanDays int) (int64, error)
}

type requestService struct {
	requestRepo repository.RequestRepository
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	productRepo repository.ProductRepository,
	txRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		productRepo: productRepo,
		txRepo:      txRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

// Create records the intent to withdraw. Deliberately no ledger write
// happens here: stock moves only on fulfillment.
func (s *requestService) Create(ctx context.Context, auth AuthContext, req CreateRequestDTO) (StockRequestResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return StockRequestResponse{}, validationErrorf("invalid product id")
	}
	if req.Quantity <= 0 {
		return StockRequestResponse{}, validationErrorf("quantity must be greater than zero")
	}

	request := model.StockRequest{
		OrganizationID: auth.OrganizationID,
		ProductID:      productID,
		RequestedBy:    auth.ActorID,
		Quantity:       req.Quantity,
		Note:           req.Note,
		Status:         model.RequestPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.productRepo.FindByID(txCtx, auth.OrganizationID, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}
		if product.CurrentStock <= 0 {
			return ErrOutOfStock
		}

		if createErr := s.requestRepo.Create(txCtx, &request); createErr != nil {
			return fmt.Errorf("failed to create stock request: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"product_id": req.ProductID,
			"quantity":   req.Quantity,
			"note":       req.Note,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			OrganizationID: &auth.OrganizationID,
			UserID:         &auth.ActorID,
			Action:         model.ActionCreateStockRequest,
			EntityID:       request.ID.String(),
			EntityName:     product.Name,
			Details:        string(details),
		})
	})
	if err != nil {
		return StockRequestResponse{}, err
	}

	publishEvent(s.hub, "request.created", map[string]interface{}{
		"request_id": request.ID.String(),
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})

	return toRequestResponse(request), nil
}

// Fulfill turns an approved withdrawal into the ledger write. The OUT
// entry and the request patch commit as one unit: a fulfilled request
// without its transaction (or the reverse) must never be observable.
func (s *requestService) Fulfill(ctx context.Context, auth AuthContext, requestID string) (FulfillResult, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return FulfillResult{}, validationErrorf("invalid request id")
	}
	if !model.CanActOnOthersRequests(auth.Role) {
		return FulfillResult{}, ErrForbidden
	}

	var request *model.StockRequest
	var entry *model.StockTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		request, findErr = s.requestRepo.FindByIDForUpdate(txCtx, auth.OrganizationID, reqID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find request: %w", findErr)
		}
		if request.Terminal() {
			return ErrAlreadyTerminal
		}

		product, findErr := s.productRepo.FindByIDForUpdate(txCtx, auth.OrganizationID, request.ProductID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		description := request.Note
		if strings.TrimSpace(description) == "" {
			description = "Pemenuhan permintaan stok"
		}
		today := time.Now().Truncate(24 * time.Hour)

		entry, findErr = applyMovement(txCtx, s.txRepo, s.productRepo, product,
			model.TxTypeOut, request.Quantity, description, today,
			auth.ActorID, model.TxSourceRequest)
		if findErr != nil {
			return findErr
		}

		now := time.Now()
		request.Status = model.RequestFulfilled
		request.FulfilledBy = &auth.ActorID
		request.FulfilledAt = &now
		request.TransactionID = &entry.ID
		if saveErr := s.requestRepo.Update(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to update request: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"transaction_id": entry.ID.String(),
			"quantity":       request.Quantity,
			"stock_after":    entry.StockAfter,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			OrganizationID: &auth.OrganizationID,
			UserID:         &auth.ActorID,
			Action:         model.ActionFulfillStockRequest,
			EntityID:       request.ID.String(),
			EntityName:     product.Name,
			Details:        string(details),
		})
	})
	if err != nil {
		return FulfillResult{}, err
	}

	publishEvent(s.hub, "stock.updated", map[string]interface{}{
		"product_id":  request.ProductID.String(),
		"request_id":  request.ID.String(),
		"type":        model.TxTypeOut,
		"quantity":    request.Quantity,
		"stock_after": entry.StockAfter,
	})

	return FulfillResult{
		Request:       toRequestResponse(*request),
		TransactionID: entry.ID.String(),
		NewBalance:    entry.StockAfter,
	}, nil
}

// Cancel finalizes a pending request without touching stock. The original
// requester may always withdraw their own request; anyone else needs the
// logistics tier.
func (s *requestService) Cancel(ctx context.Context, auth AuthContext, requestID string) (StockRequestResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return StockRequestResponse{}, validationErrorf("invalid request id")
	}

	var request *model.StockRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		request, findErr = s.requestRepo.FindByIDForUpdate(txCtx, auth.OrganizationID, reqID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find request: %w", findErr)
		}
		if request.Terminal() {
			return ErrAlreadyTerminal
		}

		if request.RequestedBy != auth.ActorID && !model.CanActOnOthersRequests(auth.Role) {
			return ErrForbidden
		}

		now := time.Now()
		request.Status = model.RequestCancelled
		request.CancelledBy = &auth.ActorID
		request.CancelledAt = &now
		if saveErr := s.requestRepo.Update(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to update request: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"product_id": request.ProductID.String(),
			"quantity":   request.Quantity,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			OrganizationID: &auth.OrganizationID,
			UserID:         &auth.ActorID,
			Action:         model.ActionCancelStockRequest,
			EntityID:       request.ID.String(),
			Details:        string(details),
		})
	})
	if err != nil {
		return StockRequestResponse{}, err
	}

	publishEvent(s.hub, "request.cancelled", map[string]interface{}{
		"request_id": request.ID.String(),
		"product_id": request.ProductID.String(),
	})

	return toRequestResponse(*request), nil
}

func (s *requestService) List(ctx context.Context, auth AuthContext, filter RequestFilter) ([]StockRequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	requests, total, err := s.requestRepo.List(ctx, auth.OrganizationID, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stock requests: %w", err)
	}

	result := make([]StockRequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}

	return result, total, nil
}

// CleanupOldTerminal is the housekeeping sweep. It only ever touches
// requests that already left PENDING, so it can run concurrently with
// live traffic.
func (s *requestService) CleanupOldTerminal(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = DefaultTerminalRetention
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	return s.requestRepo.DeleteTerminalBefore(ctx, cutoff)
}

// --- Helpers ---

func toRequestResponse(r model.StockRequest) StockRequestResponse {
	resp := StockRequestResponse{
		ID:          r.ID.String(),
		ProductID:   r.ProductID.String(),
		RequestedBy: r.RequestedBy.String(),
		Quantity:    r.Quantity,
		Note:        r.Note,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}

	if r.Product != nil {
		resp.ProductName = r.Product.Name
	}
	if r.Requester != nil {
		resp.RequesterName = r.Requester.Username
	}
	if r.FulfilledBy != nil {
		s := r.FulfilledBy.String()
		resp.FulfilledBy = &s
	}
	if r.FulfilledAt != nil {
		s := r.FulfilledAt.Format(time.RFC3339)
		resp.FulfilledAt = &s
	}
	if r.TransactionID != nil {
		s := r.TransactionID.String()
		resp.TransactionID = &s
	}
	if r.CancelledBy != nil {
		s := r.CancelledBy.String()
		resp.CancelledBy = &s
	}
	if r.CancelledAt != nil {
		s := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}

	return resp
}
