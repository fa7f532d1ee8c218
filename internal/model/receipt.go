package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptState enum constants. Transitions are one-way:
// pending is the only initial state and accepted/refused are terminal.
const (
	ReceiptPending  = "pending"
	ReceiptAccepted = "accepted"
	ReceiptRefused  = "refused"
)

// Receipt represents a submitted expense claim awaiting admin review.
// ApproverID is set exactly when the state leaves pending, and an owner
// may never approve their own receipt.
type Receipt struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	Image       []byte          `gorm:"type:bytea" json:"-"` // optional, fetched separately for prompts
	State       string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"state"`
	ApproverID  *uuid.UUID      `gorm:"type:uuid" json:"approver_id"`
	Approver    *User           `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"` // set once at creation, immutable
}
