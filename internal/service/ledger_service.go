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

// DTOs
type CreateProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	InitialStock int    `json:"initial_stock" binding:"min=0"`
}

type AppendTransactionRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=IN OUT"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Description string `json:"description" binding:"required"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD, may be backdated
}

type ProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CurrentStock int    `json:"current_stock"`
	UpdatedAt    string `json:"updated_at"`
}

type TransactionResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	Type        string  `json:"type"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	StockAfter  int     `json:"stock_after"`
	Source      string  `json:"source"`
	CreatedBy   *string `json:"created_by"`
	CreatedAt   string  `json:"created_at"`
}

type BulkDeleteResult struct {
	DeletedCount int `json:"deleted_count"`
}

// Websocket Payload
type StockEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// openingDescription seeds the synthetic IN entry for a product created
// with non-zero initial stock.
const openingDescription = "Stok Awal"

type LedgerService interface {
	CreateProduct(ctx context.Context, auth AuthContext, req CreateProductRequest) (ProductResponse, error)
	GetProduct(ctx context.Context, auth AuthContext, id string) (ProductResponse, error)
	ListProducts(ctx context.Context, auth AuthContext, page, limit int, search string) ([]ProductResponse, int64, error)
	Append(ctx context.Context, auth AuthContext, req AppendTransactionRequest) (TransactionResponse, error)
	ReverseAndDelete(ctx context.Context, auth AuthContext, transactionID string, now time.Time) error
	BulkReverseAndDelete(ctx context.Context, auth AuthContext, transactionIDs []string, now time.Time) (BulkDeleteResult, error)
	ListTransactions(ctx context.Context, auth AuthContext, productID, month string, page, limit int) ([]TransactionResponse, int64, error)
}

type ledgerService struct {
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewLedgerService(
	productRepo repository.ProductRepository,
	txRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) LedgerService {
	return &ledgerService{
		productRepo: productRepo,
		txRepo:      txRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// applyMovement inserts one ledger entry and patches the product's stock
// cache inside the caller's transaction. The caller must already hold the
// product row lock so the sufficiency check cannot race another writer.
func applyMovement(
	txCtx context.Context,
	txRepo repository.TransactionRepository,
	productRepo repository.ProductRepository,
	product *model.Product,
	txType string,
	quantity int,
	description string,
	date time.Time,
	actorID uuid.UUID,
	source string,
) (*model.StockTransaction, error) {
	stockAfter := product.CurrentStock + quantity
	if txType == model.TxTypeOut {
		if quantity > product.CurrentStock {
			return nil, &InsufficientStockError{Available: product.CurrentStock, Requested: quantity}
		}
		stockAfter = product.CurrentStock - quantity
	}

	actor := actorID
	entry := &model.StockTransaction{
		OrganizationID:  product.OrganizationID,
		ProductID:       product.ID,
		TransactionType: txType,
		Quantity:        quantity,
		Description:     description,
		Date:            date,
		StockAfter:      stockAfter,
		Source:          source,
		CreatedBy:       &actor,
	}
	if err := txRepo.Create(txCtx, entry); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	if err := productRepo.UpdateStock(txCtx, product.ID, stockAfter); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	product.CurrentStock = stockAfter

	return entry, nil
}

func (s *ledgerService) CreateProduct(ctx context.Context, auth AuthContext, req CreateProductRequest) (ProductResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return ProductResponse{}, validationErrorf("product name must not be empty")
	}
	if req.InitialStock < 0 {
		return ProductResponse{}, validationErrorf("initial stock must not be negative")
	}

	product := model.Product{
		OrganizationID: auth.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		CurrentStock:   0,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		// Non-zero initial stock seeds the opening ledger entry so the
		// balance chain starts at the log, not at the cache.
		if req.InitialStock > 0 {
			today := time.Now().Truncate(24 * time.Hour)
			if _, err := applyMovement(txCtx, s.txRepo, s.productRepo, &product,
				model.TxTypeIn, req.InitialStock, openingDescription, today,
				auth.ActorID, model.TxSourceDirect); err != nil {
				return err
			}
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			OrganizationID: &auth.OrganizationID,
			UserID:         &auth.ActorID,
			Action:         model.ActionCreateProduct,
			EntityID:       product.ID.String(),
			EntityName:     product.Name,
			Details:        string(details),
		})
	})
	if err != nil {
		return ProductResponse{}, err
	}

	publishEvent(s.hub, "product.created", map[string]interface{}{
		"product_id":    product.ID.String(),
		"name":          product.Name,
		"current_stock": product.CurrentStock,
	})

	return toProductResponse(product), nil
}

func (s *ledgerService) GetProduct(ctx context.Context, auth AuthContext, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, validationErrorf("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, auth.OrganizationID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, ErrNotFound
		}
		return ProductResponse{}, fmt.Errorf("database error: %w", err)
	}

	return toProductResponse(*product), nil
}

func (s *ledgerService) ListProducts(ctx context.Context, auth AuthContext, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, auth.OrganizationID, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}

	return res, total, nil
}

func (s *ledgerService) Append(ctx context.Context, auth AuthContext, req AppendTransactionRequest) (TransactionResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return TransactionResponse{}, validationErrorf("invalid product id")
	}
	if req.Type != model.TxTypeIn && req.Type != model.TxTypeOut {
		return TransactionResponse{}, validationErrorf("transaction type must be IN or OUT")
	}
	if req.Quantity <= 0 {
		return TransactionResponse{}, validationErrorf("quantity must be greater than zero")
	}
	if strings.TrimSpace(req.Description) == "" {
		return TransactionResponse{}, validationErrorf("description must not be empty")
	}
	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return TransactionResponse{}, validationErrorf("date must be in YYYY-MM-DD format")
	}

	var entry *model.StockTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.productRepo.FindByIDForUpdate(txCtx, auth.OrganizationID, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		entry, findErr = applyMovement(txCtx, s.txRepo, s.productRepo, product,
			req.Type, req.Quantity, req.Description, date, auth.ActorID, model.TxSourceDirect)
		if findErr != nil {
			return findErr
		}

		action := model.ActionStockIn
		if req.Type == model.TxTypeOut {
			action = model.ActionStockOut
		}
		details, _ := json.Marshal(map[string]interface{}{
			"quantity":    req.Quantity,
			"date":        req.Date,
			"description": req.Description,
			"stock_after": entry.StockAfter,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			OrganizationID: &auth.OrganizationID,
			UserID:         &auth.ActorID,
			Action:         action,
			EntityID:       entry.ID.String(),
			EntityName:     product.Name,
			Details:        string(details),
		})
	})
	if err != nil {
		return TransactionResponse{}, err
	}

	publishEvent(s.hub, "stock.updated", map[string]interface{}{
		"product_id":  req.ProductID,
		"type":        req.Type,
		"quantity":    req.Quantity,
		"stock_after": entry.StockAfter,
	})

	return toTransactionResponse(*entry), nil
}

func (s *ledgerService) ReverseAndDelete(ctx context.Context, auth AuthContext, transactionID string, now time.Time) error {
	entryID, err := uuid.Parse(transactionID)
	if err != nil {
		return validationErrorf("invalid transaction id")
	}

	var productID uuid.UUID
	var restored int
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry, findErr := s.txRepo.FindByID(txCtx, auth.OrganizationID, entryID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find transaction: %w", findErr)
		}

		if !model.CanDeleteTransaction(auth.Role, entry.CreatedAt, now) {
			return ErrForbidden
		}

		product, findErr := s.productRepo.FindByIDForUpdate(txCtx, auth.OrganizationID, entry.ProductID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		// Delta reversal against the current stock, not a log replay.
		// The delete window keeps reversals close to creation.
		restored = product.CurrentStock - entry.Quantity
		if entry.TransactionType == model.TxTypeOut {
			restored = product.CurrentStock + entry.Quantity
		}
		if restored < 0 {
			// Reversing an IN whose quantity was already consumed would
			// fork the cache below zero.
			return &InsufficientStockError{Available: product.CurrentStock, Requested: entry.Quantity}
		}

		// The entry was loaded before the product lock was acquired, so a
		// concurrent reversal may have removed it while we waited. A
		// zero-row delete means the other transaction already restored the
		// stock; restoring it again here would fork the cache from the log.
		if delErr := s.txRepo.Delete(txCtx, entry.ID); delErr != nil {
			if errors.Is(delErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to delete transaction: %w", delErr)
		}
		if updErr := s.productRepo.UpdateStock(txCtx, product.ID, restored); updErr != nil {
			return fmt.Errorf("failed to restore stock: %w", updErr)
		}

		productID = product.ID
		details, _ := json.Marshal(map[string]interface{}{
			"type":           entry.TransactionType,
			"quantity":       entry.Quantity,
			"stock_restored": restored,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			OrganizationID: &auth.OrganizationID,
			UserID:         &auth.ActorID,
			Action:         model.ActionDeleteTransaction,
			EntityID:       entry.ID.String(),
			EntityName:     product.Name,
			Details:        string(details),
		})
	})
	if err != nil {
		return err
	}

	publishEvent(s.hub, "stock.updated", map[string]interface{}{
		"product_id":  productID.String(),
		"stock_after": restored,
	})

	return nil
}

// BulkReverseAndDelete applies the single-entry reversal to each id in its
// own transaction. Best effort: one failure does not roll back entries
// already deleted, the caller receives the count that went through.
func (s *ledgerService) BulkReverseAndDelete(ctx context.Context, auth AuthContext, transactionIDs []string, now time.Time) (BulkDeleteResult, error) {
	deleted := 0
	for _, id := range transactionIDs {
		if err := s.ReverseAndDelete(ctx, auth, id, now); err != nil {
			continue
		}
		deleted++
	}
	return BulkDeleteResult{DeletedCount: deleted}, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, auth AuthContext, productID, month string, page, limit int) ([]TransactionResponse, int64, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, 0, validationErrorf("invalid product id")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var from, to *time.Time
	if month != "" {
		start, end, rangeErr := MonthRange(month)
		if rangeErr != nil {
			return nil, 0, rangeErr
		}
		from, to = &start, &end
	}

	txs, total, err := s.txRepo.ListForProduct(ctx, auth.OrganizationID, pid, from, to, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		res = append(res, toTransactionResponse(tx))
	}

	return res, total, nil
}

// publishEvent pushes a ledger event to connected clients. Callers invoke
// it only after the surrounding transaction committed; a nil hub (tests,
// tooling) turns it into a no-op.
func publishEvent(hub *ws.Hub, event string, data map[string]interface{}) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(StockEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	hub.Publish(payload)
}

// --- Helpers ---

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		CurrentStock: p.CurrentStock,
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponse(tx model.StockTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          tx.ID.String(),
		ProductID:   tx.ProductID.String(),
		Type:        tx.TransactionType,
		Quantity:    tx.Quantity,
		Description: tx.Description,
		Date:        tx.Date.Format(model.DateLayout),
		StockAfter:  tx.StockAfter,
		Source:      tx.Source,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.CreatedBy != nil {
		s := tx.CreatedBy.String()
		resp.CreatedBy = &s
	}
	return resp
}
