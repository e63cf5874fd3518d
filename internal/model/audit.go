package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct      = "CREATE_PRODUCT"
	ActionStockIn            = "STOCK_IN"
	ActionStockOut           = "STOCK_OUT"
	ActionDeleteTransaction  = "DELETE_TRANSACTION"
	ActionCreateOrganization = "CREATE_ORGANIZATION"
	ActionAddMember          = "ADD_MEMBER"

	// Stock request workflow actions
	ActionCreateStockRequest  = "CREATE_STOCK_REQUEST"
	ActionFulfillStockRequest = "FULFILL_STOCK_REQUEST"
	ActionCancelStockRequest  = "CANCEL_STOCK_REQUEST"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated sweep
	User           *User      `gorm:"foreignKey:UserID" json:"user"`
	Action         string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID       string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName     string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details        string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}
