package model

import (
	"time"

	"github.com/google/uuid"
)

// StockRequest status constants
const (
	RequestPending   = "PENDING"
	RequestFulfilled = "FULFILLED"
	RequestCancelled = "CANCELLED"
)

// StockRequest is an approval-gated intent to withdraw stock. It leaves
// PENDING exactly once: fulfillment writes the OUT transaction and links
// it via TransactionID, cancellation touches no stock at all.
type StockRequest struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product        *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	RequestedBy    uuid.UUID  `gorm:"type:uuid;not null;index" json:"requested_by"`
	Requester      *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	Quantity       int        `gorm:"type:int;not null" json:"quantity"`
	Note           string     `gorm:"type:text" json:"note"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	FulfilledBy    *uuid.UUID `gorm:"type:uuid" json:"fulfilled_by"`
	Fulfiller      *User      `gorm:"foreignKey:FulfilledBy" json:"fulfiller,omitempty"`
	FulfilledAt    *time.Time `json:"fulfilled_at"`
	TransactionID  *uuid.UUID `gorm:"type:uuid" json:"transaction_id"`
	CancelledBy    *uuid.UUID `gorm:"type:uuid" json:"cancelled_by"`
	CancelledAt    *time.Time `json:"cancelled_at"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Terminal reports whether the request has already left PENDING.
func (r *StockRequest) Terminal() bool {
	return r.Status != RequestPending
}
