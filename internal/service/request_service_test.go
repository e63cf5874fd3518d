package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"stokledger/internal/model"
	ws "stokledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type requestFixture struct {
	products *fakeProductRepo
	txs      *fakeTransactionRepo
	requests *fakeRequestRepo
	audit    *fakeAuditRepo
	ledger   LedgerService
	svc      RequestService
	orgID    uuid.UUID
}

func newRequestFixture() *requestFixture {
	products := newFakeProductRepo()
	txs := newFakeTransactionRepo()
	requests := newFakeRequestRepo()
	audit := &fakeAuditRepo{}
	return &requestFixture{
		products: products,
		txs:      txs,
		requests: requests,
		audit:    audit,
		ledger:   NewLedgerService(products, txs, audit, fakeTxManager{}, nil),
		svc:      NewRequestService(requests, products, txs, audit, fakeTxManager{}, nil),
		orgID:    uuid.New(),
	}
}

func (f *requestFixture) authAs(role string) AuthContext {
	return AuthContext{ActorID: uuid.New(), OrganizationID: f.orgID, Role: role}
}

func (f *requestFixture) mustCreateProduct(t *testing.T, initialStock int) ProductResponse {
	t.Helper()
	resp, err := f.ledger.CreateProduct(context.Background(), f.authAs(model.RoleStaf), CreateProductRequest{
		Name:         "Beras",
		InitialStock: initialStock,
	})
	require.NoError(t, err)
	return resp
}

func (f *requestFixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	resp, err := f.ledger.GetProduct(context.Background(), f.authAs(model.RoleAnggota), productID)
	require.NoError(t, err)
	return resp.CurrentStock
}

func TestCreateRequestStaysPending(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 5)
	entriesBefore := len(f.txs.entries)

	// Quantity above the current stock is still accepted at creation;
	// sufficiency is checked at fulfillment time.
	resp, err := f.svc.Create(context.Background(), f.authAs(model.RoleAnggota), CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  50,
		Note:      "untuk acara",
	})
	require.NoError(t, err)
	require.Equal(t, model.RequestPending, resp.Status)
	require.Nil(t, resp.TransactionID)

	// No stock moved at creation.
	require.Len(t, f.txs.entries, entriesBefore)
	require.Equal(t, 5, f.stockOf(t, product.ID))
	require.Contains(t, f.audit.actions(), model.ActionCreateStockRequest)
}

func TestCreateRequestRejectsOutOfStockProduct(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 0)

	_, err := f.svc.Create(context.Background(), f.authAs(model.RoleAnggota), CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  1,
	})
	require.ErrorIs(t, err, ErrOutOfStock)
	require.Empty(t, f.requests.requests)
}

func TestFulfillWritesTransactionAndRequestTogether(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 100)
	requester := f.authAs(model.RoleAnggota)

	created, err := f.svc.Create(context.Background(), requester, CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  50,
		Note:      "untuk cabang",
	})
	require.NoError(t, err)

	fulfiller := f.authAs(model.RoleLogistik)
	result, err := f.svc.Fulfill(context.Background(), fulfiller, created.ID)
	require.NoError(t, err)

	require.Equal(t, model.RequestFulfilled, result.Request.Status)
	require.Equal(t, 50, result.NewBalance)
	require.NotNil(t, result.Request.TransactionID)
	require.Equal(t, result.TransactionID, *result.Request.TransactionID)

	entry, findErr := f.txs.FindByID(context.Background(), f.orgID, uuid.MustParse(result.TransactionID))
	require.NoError(t, findErr)
	require.Equal(t, model.TxTypeOut, entry.TransactionType)
	require.Equal(t, 50, entry.Quantity)
	require.Equal(t, 50, entry.StockAfter)
	require.Equal(t, model.TxSourceRequest, entry.Source)
	require.Equal(t, "untuk cabang", entry.Description)
	require.Equal(t, fulfiller.ActorID, *entry.CreatedBy)

	require.Equal(t, 50, f.stockOf(t, product.ID))
	require.Contains(t, f.audit.actions(), model.ActionFulfillStockRequest)
}

func TestFulfillUsesDefaultDescriptionWhenNoteEmpty(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 20)

	created, err := f.svc.Create(context.Background(), f.authAs(model.RoleAnggota), CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  5,
	})
	require.NoError(t, err)

	result, err := f.svc.Fulfill(context.Background(), f.authAs(model.RoleLogistik), created.ID)
	require.NoError(t, err)

	entry, findErr := f.txs.FindByID(context.Background(), f.orgID, uuid.MustParse(result.TransactionID))
	require.NoError(t, findErr)
	require.Equal(t, "Pemenuhan permintaan stok", entry.Description)
}

func TestRequestLeavesPendingExactlyOnce(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 100)
	requester := f.authAs(model.RoleAnggota)
	fulfiller := f.authAs(model.RoleLogistik)

	created, err := f.svc.Create(context.Background(), requester, CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  50,
	})
	require.NoError(t, err)

	_, err = f.svc.Fulfill(context.Background(), fulfiller, created.ID)
	require.NoError(t, err)
	entriesAfterFirst := len(f.txs.entries)

	// A second fulfillment attempt must not write another OUT entry.
	_, err = f.svc.Fulfill(context.Background(), fulfiller, created.ID)
	require.ErrorIs(t, err, ErrAlreadyTerminal)
	require.Len(t, f.txs.entries, entriesAfterFirst)
	require.Equal(t, 50, f.stockOf(t, product.ID))

	// Cancelling after fulfillment is equally rejected.
	_, err = f.svc.Cancel(context.Background(), requester, created.ID)
	require.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestFulfillRequiresLogistikTier(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 100)

	created, err := f.svc.Create(context.Background(), f.authAs(model.RoleAnggota), CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  10,
	})
	require.NoError(t, err)

	_, err = f.svc.Fulfill(context.Background(), f.authAs(model.RoleStaf), created.ID)
	require.ErrorIs(t, err, ErrForbidden)

	got, findErr := f.requests.FindByID(context.Background(), f.orgID, uuid.MustParse(created.ID))
	require.NoError(t, findErr)
	require.Equal(t, model.RequestPending, got.Status)
}

func TestFulfillInsufficientStockKeepsRequestPending(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 10)

	created, err := f.svc.Create(context.Background(), f.authAs(model.RoleAnggota), CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  15,
	})
	require.NoError(t, err)

	_, err = f.svc.Fulfill(context.Background(), f.authAs(model.RoleLogistik), created.ID)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 10, insufficient.Available)
	require.Equal(t, 15, insufficient.Requested)

	got, findErr := f.requests.FindByID(context.Background(), f.orgID, uuid.MustParse(created.ID))
	require.NoError(t, findErr)
	require.Equal(t, model.RequestPending, got.Status)
	require.Equal(t, 10, f.stockOf(t, product.ID))
}

func TestCancelOwnershipAndTier(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 100)
	requester := f.authAs(model.RoleAnggota)

	newPending := func(t *testing.T) string {
		t.Helper()
		created, err := f.svc.Create(context.Background(), requester, CreateRequestDTO{
			ProductID: product.ID,
			Quantity:  5,
		})
		require.NoError(t, err)
		return created.ID
	}

	t.Run("requester cancels own", func(t *testing.T) {
		id := newPending(t)
		resp, err := f.svc.Cancel(context.Background(), requester, id)
		require.NoError(t, err)
		require.Equal(t, model.RequestCancelled, resp.Status)
		require.NotNil(t, resp.CancelledBy)
	})

	t.Run("other anggota is rejected", func(t *testing.T) {
		id := newPending(t)
		_, err := f.svc.Cancel(context.Background(), f.authAs(model.RoleAnggota), id)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("logistik cancels on behalf", func(t *testing.T) {
		id := newPending(t)
		resp, err := f.svc.Cancel(context.Background(), f.authAs(model.RoleLogistik), id)
		require.NoError(t, err)
		require.Equal(t, model.RequestCancelled, resp.Status)
	})

	// Cancellation never touches stock.
	require.Equal(t, 100, f.stockOf(t, product.ID))
}

func TestFulfillMissingProduct(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 20)

	created, err := f.svc.Create(context.Background(), f.authAs(model.RoleAnggota), CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  5,
	})
	require.NoError(t, err)

	delete(f.products.products, uuid.MustParse(product.ID))

	_, err = f.svc.Fulfill(context.Background(), f.authAs(model.RoleLogistik), created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

// nextEvent pops one queued hub broadcast. The hub's dispatch loop is not
// running, so published payloads stay in the buffered channel.
func nextEvent(t *testing.T, hub *ws.Hub) StockEvent {
	t.Helper()
	select {
	case payload := <-hub.Broadcast:
		var event StockEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	default:
		t.Fatal("expected a broadcast event, queue is empty")
		return StockEvent{}
	}
}

func TestRequestTransitionsPublishEvents(t *testing.T) {
	products := newFakeProductRepo()
	txs := newFakeTransactionRepo()
	requests := newFakeRequestRepo()
	audit := &fakeAuditRepo{}
	hub := ws.NewHub()
	ledger := NewLedgerService(products, txs, audit, fakeTxManager{}, hub)
	svc := NewRequestService(requests, products, txs, audit, fakeTxManager{}, hub)

	orgID := uuid.New()
	staf := AuthContext{ActorID: uuid.New(), OrganizationID: orgID, Role: model.RoleStaf}
	anggota := AuthContext{ActorID: uuid.New(), OrganizationID: orgID, Role: model.RoleAnggota}
	logistik := AuthContext{ActorID: uuid.New(), OrganizationID: orgID, Role: model.RoleLogistik}

	product, err := ledger.CreateProduct(context.Background(), staf, CreateProductRequest{
		Name:         "Beras",
		InitialStock: 100,
	})
	require.NoError(t, err)
	require.Equal(t, "product.created", nextEvent(t, hub).Event)

	created, err := svc.Create(context.Background(), anggota, CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  40,
	})
	require.NoError(t, err)

	event := nextEvent(t, hub)
	require.Equal(t, "request.created", event.Event)
	require.Equal(t, created.ID, event.Data["request_id"])

	_, err = svc.Fulfill(context.Background(), logistik, created.ID)
	require.NoError(t, err)

	event = nextEvent(t, hub)
	require.Equal(t, "stock.updated", event.Event)
	require.Equal(t, created.ID, event.Data["request_id"])
	require.EqualValues(t, 60, event.Data["stock_after"])

	second, err := svc.Create(context.Background(), anggota, CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  10,
	})
	require.NoError(t, err)
	require.Equal(t, "request.created", nextEvent(t, hub).Event)

	_, err = svc.Cancel(context.Background(), anggota, second.ID)
	require.NoError(t, err)

	event = nextEvent(t, hub)
	require.Equal(t, "request.cancelled", event.Event)
	require.Equal(t, second.ID, event.Data["request_id"])
}

func TestCleanupOldTerminalSweepsOnlyFinalizedRequests(t *testing.T) {
	f := newRequestFixture()
	productID := uuid.New()

	seed := func(status string, age time.Duration) uuid.UUID {
		req := &model.StockRequest{
			ID:             uuid.New(),
			OrganizationID: f.orgID,
			ProductID:      productID,
			RequestedBy:    uuid.New(),
			Quantity:       1,
			Status:         status,
			CreatedAt:      time.Now().Add(-age),
		}
		require.NoError(t, f.requests.Create(context.Background(), req))
		return req.ID
	}

	oldFulfilled := seed(model.RequestFulfilled, 40*24*time.Hour)
	oldCancelled := seed(model.RequestCancelled, 35*24*time.Hour)
	oldPending := seed(model.RequestPending, 90*24*time.Hour)
	freshFulfilled := seed(model.RequestFulfilled, 24*time.Hour)

	deleted, err := f.svc.CleanupOldTerminal(context.Background(), 30)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	_, err = f.requests.FindByID(context.Background(), f.orgID, oldFulfilled)
	require.Error(t, err)
	_, err = f.requests.FindByID(context.Background(), f.orgID, oldCancelled)
	require.Error(t, err)
	_, err = f.requests.FindByID(context.Background(), f.orgID, oldPending)
	require.NoError(t, err)
	_, err = f.requests.FindByID(context.Background(), f.orgID, freshFulfilled)
	require.NoError(t, err)
}

// Walks the whole flow once: opening stock, a direct withdrawal, a
// fulfilled request, and the terminal guard on the second attempt.
func TestInventoryWorkflowEndToEnd(t *testing.T) {
	f := newRequestFixture()
	product := f.mustCreateProduct(t, 100)
	staf := f.authAs(model.RoleStaf)
	anggota := f.authAs(model.RoleAnggota)
	logistik := f.authAs(model.RoleLogistik)

	out, err := f.ledger.Append(context.Background(), staf, AppendTransactionRequest{
		ProductID:   product.ID,
		Type:        model.TxTypeOut,
		Quantity:    30,
		Description: "distribusi toko",
		Date:        "2026-03-02",
	})
	require.NoError(t, err)
	require.Equal(t, 70, out.StockAfter)

	created, err := f.svc.Create(context.Background(), anggota, CreateRequestDTO{
		ProductID: product.ID,
		Quantity:  50,
	})
	require.NoError(t, err)

	result, err := f.svc.Fulfill(context.Background(), logistik, created.ID)
	require.NoError(t, err)
	require.Equal(t, 20, result.NewBalance)
	require.Equal(t, 20, f.stockOf(t, product.ID))

	_, err = f.svc.Fulfill(context.Background(), logistik, created.ID)
	require.ErrorIs(t, err, ErrAlreadyTerminal)
	require.Equal(t, 20, f.stockOf(t, product.ID))
}
