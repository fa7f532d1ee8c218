package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItem represents one sellable variant (item + size) of team gear
type StockItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Item      string          `gorm:"type:varchar(255);not null;index" json:"item"`
	Size      string          `gorm:"type:varchar(20);not null" json:"size"`
	Quantity  int             `gorm:"type:int;not null;default:0" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// StockMovement records stock changes strictly, one row per purchase
type StockMovement struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StockItemID     int64     `gorm:"not null;index" json:"stock_item_id"`
	StockItem       StockItem `gorm:"foreignKey:StockItemID" json:"-"`
	BuyerID         uuid.UUID `gorm:"type:uuid;not null;index" json:"buyer_id"`
	QuantityChanged int       `gorm:"type:int;not null" json:"quantity_changed"` // negative for purchases
	StockAfter      int       `gorm:"type:int;not null" json:"stock_after"`
	CreatedAt       time.Time `json:"created_at"`
}
