package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType Enum Simulation
const (
	TxTypeIn  = "IN"  // barang masuk
	TxTypeOut = "OUT" // barang keluar
)

// Transaction source provenance
const (
	TxSourceDirect  = "DIRECT"  // recorded by a member directly
	TxSourceRequest = "REQUEST" // produced by fulfilling a stock request
)

// StockTransaction is one signed stock movement. Rows are append-only:
// they are never edited in place, only inserted through the ledger service
// or removed through its authorized reversal path.
//
// Date is the business date and may be backdated; CreatedAt is the
// insertion time. The balance chain invariant holds over CreatedAt order:
// each StockAfter equals the previous StockAfter +/- Quantity.
type StockTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_product_date" json:"product_id"`
	Product         *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	TransactionType string     `gorm:"type:varchar(10);not null" json:"transaction_type"` // IN, OUT
	Quantity        int        `gorm:"type:int;not null" json:"quantity"`
	Description     string     `gorm:"type:text;not null" json:"description"`
	Date            time.Time  `gorm:"type:date;not null;index:idx_product_date" json:"date"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	Source          string     `gorm:"type:varchar(10);not null;default:'DIRECT'" json:"source"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}

// DateLayout is the wire format for business dates.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for report months.
const MonthLayout = "2006-01"
