package service

import (
	"context"
	"sort"
	"time"

	"stokledger/internal/model"
	"stokledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They honor org scoping and the not-found
// contract of the real gorm-backed repositories, but skip locking: the
// tests exercise service logic, not postgres.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product

	// onLock runs once inside the next FindByIDForUpdate call, standing in
	// for work another transaction finished while this one waited on the
	// row lock.
	onLock func()
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (f *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok || p.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) FindByIDForUpdate(ctx context.Context, orgID, id uuid.UUID) (*model.Product, error) {
	if f.onLock != nil {
		hook := f.onLock
		f.onLock = nil
		hook()
	}
	return f.FindByID(ctx, orgID, id)
}

func (f *fakeProductRepo) List(_ context.Context, orgID uuid.UUID, page, limit int, _ string) ([]model.Product, int64, error) {
	var all []model.Product
	for _, p := range f.products {
		if p.OrganizationID == orgID {
			all = append(all, *p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeProductRepo) UpdateStock(_ context.Context, id uuid.UUID, stock int) error {
	p, ok := f.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.CurrentStock = stock
	p.UpdatedAt = time.Now()
	return nil
}

type fakeTransactionRepo struct {
	entries []model.StockTransaction
	clock   time.Time
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{clock: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (f *fakeTransactionRepo) Create(_ context.Context, tx *model.StockTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		// Strictly increasing insertion times keep tie-breaks deterministic.
		f.clock = f.clock.Add(time.Minute)
		tx.CreatedAt = f.clock
	}
	f.entries = append(f.entries, *tx)
	return nil
}

func (f *fakeTransactionRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.StockTransaction, error) {
	for i := range f.entries {
		if f.entries[i].ID == id && f.entries[i].OrganizationID == orgID {
			cp := f.entries[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTransactionRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeTransactionRepo) ListForProduct(_ context.Context, orgID, productID uuid.UUID, from, to *time.Time, page, limit int) ([]model.StockTransaction, int64, error) {
	var all []model.StockTransaction
	for _, tx := range f.entries {
		if tx.OrganizationID != orgID || tx.ProductID != productID {
			continue
		}
		if from != nil && tx.Date.Before(*from) {
			continue
		}
		if to != nil && !tx.Date.Before(*to) {
			continue
		}
		all = append(all, tx)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeTransactionRepo) ListChronological(_ context.Context, orgID, productID uuid.UUID) ([]model.StockTransaction, error) {
	var all []model.StockTransaction
	for _, tx := range f.entries {
		if tx.OrganizationID == orgID && tx.ProductID == productID {
			all = append(all, tx)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

type fakeRequestRepo struct {
	requests map[uuid.UUID]*model.StockRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*model.StockRequest)}
}

func (f *fakeRequestRepo) Create(_ context.Context, req *model.StockRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.StockRequest, error) {
	r, ok := f.requests[id]
	if !ok || r.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequestRepo) FindByIDForUpdate(ctx context.Context, orgID, id uuid.UUID) (*model.StockRequest, error) {
	return f.FindByID(ctx, orgID, id)
}

func (f *fakeRequestRepo) Update(_ context.Context, req *model.StockRequest) error {
	if _, ok := f.requests[req.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) List(_ context.Context, orgID uuid.UUID, status string, page, limit int) ([]model.StockRequest, int64, error) {
	var all []model.StockRequest
	for _, r := range f.requests {
		if r.OrganizationID != orgID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeRequestRepo) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, r := range f.requests {
		if r.Status != model.RequestPending && r.CreatedAt.Before(cutoff) {
			delete(f.requests, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeAuditRepo struct {
	logs []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, orgID uuid.UUID, action string, page, limit int) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	for _, l := range f.logs {
		if l.OrganizationID == nil || *l.OrganizationID != orgID {
			continue
		}
		if action != "" && l.Action != action {
			continue
		}
		all = append(all, l)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.Action)
	}
	return out
}

func paginate[T any](items []T, page, limit int) []T {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Interface conformance
var (
	_ repository.TransactionManager    = fakeTxManager{}
	_ repository.ProductRepository     = (*fakeProductRepo)(nil)
	_ repository.TransactionRepository = (*fakeTransactionRepo)(nil)
	_ repository.RequestRepository     = (*fakeRequestRepo)(nil)
	_ repository.AuditRepository       = (*fakeAuditRepo)(nil)
)
