package service

import (
	"context"
	"testing"
	"time"

	"stokledger/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	products *fakeProductRepo
	txs      *fakeTransactionRepo
	svc      ReportService
	auth     AuthContext
	product  *model.Product
}

func newReportFixture(t *testing.T, currentStock int) *reportFixture {
	t.Helper()
	products := newFakeProductRepo()
	txs := newFakeTransactionRepo()

	auth := AuthContext{
		ActorID:        uuid.New(),
		OrganizationID: uuid.New(),
		Role:           model.RoleAnggota,
	}
	product := &model.Product{
		OrganizationID: auth.OrganizationID,
		Name:           "Beras",
		CurrentStock:   currentStock,
	}
	require.NoError(t, products.Create(context.Background(), product))

	return &reportFixture{
		products: products,
		txs:      txs,
		svc:      NewReportService(products, txs),
		auth:     auth,
		product:  product,
	}
}

// entry inserts a ledger row with a frozen StockAfter, the way the live
// service would have written it at the time.
func (f *reportFixture) entry(t *testing.T, txType string, qty, stockAfter int, date string) {
	t.Helper()
	day, err := time.Parse(model.DateLayout, date)
	require.NoError(t, err)
	require.NoError(t, f.txs.Create(context.Background(), &model.StockTransaction{
		OrganizationID:  f.auth.OrganizationID,
		ProductID:       f.product.ID,
		TransactionType: txType,
		Quantity:        qty,
		StockAfter:      stockAfter,
		Date:            day,
		Source:          model.TxSourceDirect,
	}))
}

func TestReconstructMonthOpeningFromPriorEntry(t *testing.T) {
	f := newReportFixture(t, 95)
	f.entry(t, model.TxTypeIn, 100, 100, "2026-01-10")
	f.entry(t, model.TxTypeOut, 20, 80, "2026-01-25")
	f.entry(t, model.TxTypeOut, 30, 50, "2026-02-03")
	f.entry(t, model.TxTypeIn, 45, 95, "2026-02-15")

	report, err := f.svc.ReconstructMonth(context.Background(), f.auth, f.product.ID.String(), "2026-02")
	require.NoError(t, err)

	require.Equal(t, 80, report.OpeningBalance)
	require.Equal(t, 95, report.ClosingBalance)
	require.Equal(t, 45, report.TotalIn)
	require.Equal(t, 30, report.TotalOut)
	require.Len(t, report.Entries, 2)
}

func TestReconstructMonthOpeningByInvertingFirstEntry(t *testing.T) {
	t.Run("first entry is IN", func(t *testing.T) {
		f := newReportFixture(t, 100)
		f.entry(t, model.TxTypeIn, 100, 100, "2026-02-01")

		report, err := f.svc.ReconstructMonth(context.Background(), f.auth, f.product.ID.String(), "2026-02")
		require.NoError(t, err)
		require.Equal(t, 0, report.OpeningBalance)
		require.Equal(t, 100, report.ClosingBalance)
	})

	t.Run("first entry is OUT", func(t *testing.T) {
		f := newReportFixture(t, 70)
		f.entry(t, model.TxTypeOut, 30, 70, "2026-02-01")

		report, err := f.svc.ReconstructMonth(context.Background(), f.auth, f.product.ID.String(), "2026-02")
		require.NoError(t, err)
		require.Equal(t, 100, report.OpeningBalance)
		require.Equal(t, 70, report.ClosingBalance)
	})
}

func TestReconstructMonthNoHistoryUsesCurrentStock(t *testing.T) {
	f := newReportFixture(t, 42)

	report, err := f.svc.ReconstructMonth(context.Background(), f.auth, f.product.ID.String(), "2026-02")
	require.NoError(t, err)

	require.Equal(t, 42, report.OpeningBalance)
	require.Equal(t, 42, report.ClosingBalance)
	require.Zero(t, report.TotalIn)
	require.Zero(t, report.TotalOut)
	require.Empty(t, report.Entries)
}

func TestReconstructMonthSortsBackdatedEntriesByBusinessDate(t *testing.T) {
	f := newReportFixture(t, 90)
	// Insertion order: the March entry first, then a backdated February
	// entry recorded later. Business-date ordering must put February first.
	f.entry(t, model.TxTypeIn, 100, 100, "2026-03-02")
	f.entry(t, model.TxTypeOut, 10, 90, "2026-02-20")

	report, err := f.svc.ReconstructMonth(context.Background(), f.auth, f.product.ID.String(), "2026-03")
	require.NoError(t, err)

	// The backdated entry is the "last before the month" and its frozen
	// balance becomes March's opening.
	require.Equal(t, 90, report.OpeningBalance)
	require.Equal(t, 100, report.ClosingBalance)
	require.Len(t, report.Entries, 1)
}

func TestReconstructMonthTiesOnSameDateBreakByInsertion(t *testing.T) {
	f := newReportFixture(t, 60)
	f.entry(t, model.TxTypeIn, 100, 100, "2026-02-10")
	f.entry(t, model.TxTypeOut, 40, 60, "2026-02-10")

	report, err := f.svc.ReconstructMonth(context.Background(), f.auth, f.product.ID.String(), "2026-02")
	require.NoError(t, err)

	require.Len(t, report.Entries, 2)
	require.Equal(t, model.TxTypeIn, report.Entries[0].Type)
	require.Equal(t, model.TxTypeOut, report.Entries[1].Type)
	require.Equal(t, 0, report.OpeningBalance)
	require.Equal(t, 60, report.ClosingBalance)
}

func TestReconstructMonthValidation(t *testing.T) {
	f := newReportFixture(t, 10)

	_, err := f.svc.ReconstructMonth(context.Background(), f.auth, "not-a-uuid", "2026-02")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.svc.ReconstructMonth(context.Background(), f.auth, f.product.ID.String(), "Feb-2026")
	require.ErrorAs(t, err, &verr)

	_, err = f.svc.ReconstructMonth(context.Background(), f.auth, uuid.NewString(), "2026-02")
	require.ErrorIs(t, err, ErrNotFound)
}
