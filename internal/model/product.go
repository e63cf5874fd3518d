package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is an item whose stock level the ledger tracks. CurrentStock is
// a denormalized cache of the latest StockAfter in the transaction log and
// is only ever patched together with a log write.
type Product struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Description    string         `gorm:"type:text" json:"description"`
	CurrentStock   int            `gorm:"type:int;default:0;not null" json:"current_stock"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
