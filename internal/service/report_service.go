package service

import (
	"context"
	"errors"
	"fmt"

	"stokledger/internal/model"
	"stokledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MonthlyReport is a point-in-time reconstruction of one product's ledger
// for a calendar month. Entries keep their frozen StockAfter values, so
// the report reproduces the historical balance sequence even when later
// reversals changed the live stock.
type MonthlyReport struct {
	ProductID      string                `json:"product_id"`
	ProductName    string                `json:"product_name"`
	Month          string                `json:"month"`
	OpeningBalance int                   `json:"opening_balance"`
	ClosingBalance int                   `json:"closing_balance"`
	TotalIn        int                   `json:"total_in"`
	TotalOut       int                   `json:"total_out"`
	Entries        []TransactionResponse `json:"entries"`
}

type ReportService interface {
	ReconstructMonth(ctx context.Context, auth AuthContext, productID, month string) (MonthlyReport, error)
}

type reportService struct {
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
}

func NewReportService(productRepo repository.ProductRepository, txRepo repository.TransactionRepository) ReportService {
	return &reportService{productRepo: productRepo, txRepo: txRepo}
}

// ReconstructMonth derives the opening balance for the month and replays
// the month's entries. Ordering is the composite key (date, created_at):
// backdated entries sort under their business date, insertion order
// breaks ties within a date.
func (s *reportService) ReconstructMonth(ctx context.Context, auth AuthContext, productID, month string) (MonthlyReport, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return MonthlyReport{}, validationErrorf("invalid product id")
	}
	monthStart, nextMonth, err := MonthRange(month)
	if err != nil {
		return MonthlyReport{}, err
	}

	product, err := s.productRepo.FindByID(ctx, auth.OrganizationID, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MonthlyReport{}, ErrNotFound
		}
		return MonthlyReport{}, fmt.Errorf("database error: %w", err)
	}

	all, err := s.txRepo.ListChronological(ctx, auth.OrganizationID, pid)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	var before, within []model.StockTransaction
	for _, tx := range all {
		switch {
		case tx.Date.Before(monthStart):
			before = append(before, tx)
		case tx.Date.Before(nextMonth):
			within = append(within, tx)
		}
	}

	opening := deriveOpeningBalance(before, within, product.CurrentStock)

	report := MonthlyReport{
		ProductID:      product.ID.String(),
		ProductName:    product.Name,
		Month:          month,
		OpeningBalance: opening,
		ClosingBalance: opening,
		Entries:        make([]TransactionResponse, 0, len(within)),
	}
	for _, tx := range within {
		if tx.TransactionType == model.TxTypeIn {
			report.TotalIn += tx.Quantity
		} else {
			report.TotalOut += tx.Quantity
		}
		report.Entries = append(report.Entries, toTransactionResponse(tx))
	}
	if len(within) > 0 {
		report.ClosingBalance = within[len(within)-1].StockAfter
	}

	return report, nil
}

// deriveOpeningBalance trusts the stored balance chain instead of
// recomputing from scratch:
//   - the last entry before the month carries the opening balance;
//   - with no prior history, inverting the month's first entry gives it;
//   - with no history at all, the live stock is taken as having always
//     been the case.
func deriveOpeningBalance(before, within []model.StockTransaction, currentStock int) int {
	if len(before) > 0 {
		return before[len(before)-1].StockAfter
	}
	if len(within) > 0 {
		first := within[0]
		if first.TransactionType == model.TxTypeIn {
			return first.StockAfter - first.Quantity
		}
		return first.StockAfter + first.Quantity
	}
	return currentStock
}
