package repository

import (
	"context"

	"teambot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	ListInStock(ctx context.Context) ([]model.StockItem, error)
	GetByID(ctx context.Context, id int64) (*model.StockItem, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.StockItem, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	CreateMovement(ctx context.Context, movement *model.StockMovement) error
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

// ListInStock returns items with remaining quantity, ordered by item then size
func (r *stockRepository) ListInStock(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	if err := GetDB(ctx, r.db).
		Where("quantity > 0").
		Order("item, size").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *stockRepository) GetByID(ctx context.Context, id int64) (*model.StockItem, error) {
	var item model.StockItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDForUpdate row-locks the item so concurrent purchases cannot oversell
func (r *stockRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.StockItem, error) {
	var item model.StockItem
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.StockItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (r *stockRepository) CreateMovement(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}
