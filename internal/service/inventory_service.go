package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"teambot/internal/mailer"
	"teambot/internal/model"
	"teambot/internal/repository"
	"teambot/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a purchase exceeds what is left.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockVariant is one size row inside a grouped stock listing
type StockVariant struct {
	ID       int64  `json:"id"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// StockGroup groups variants of the same item and price, matching how the
// team browses gear
type StockGroup struct {
	Item     string         `json:"item"`
	Price    string         `json:"price"`
	Variants []StockVariant `json:"variants"`
}

type PurchaseRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type PurchaseResponse struct {
	Item     string `json:"item"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
}

// InventoryService covers the stock browsing and purchase commands
type InventoryService interface {
	ListStock(ctx context.Context) ([]StockGroup, error)
	Purchase(ctx context.Context, itemID int64, buyerID uuid.UUID, quantity int) (*PurchaseResponse, error)
}

type inventoryService struct {
	stock repository.StockRepository
	users repository.UserRepository
	audit repository.AuditRepository
	txm   repository.TransactionManager
	mail  mailer.Mailer
}

func NewInventoryService(stock repository.StockRepository, users repository.UserRepository, audit repository.AuditRepository, txm repository.TransactionManager, mail mailer.Mailer) InventoryService {
	return &inventoryService{stock: stock, users: users, audit: audit, txm: txm, mail: mail}
}

// ListStock returns in-stock items grouped by item and price. Grouping is
// keyed, not adjacency-based: every size of the same item at the same price
// lands in one group no matter how the rows are ordered.
func (s *inventoryService) ListStock(ctx context.Context) ([]StockGroup, error) {
	items, err := s.stock.ListInStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}

	type groupKey struct {
		item  string
		price string
	}
	byKey := make(map[groupKey]int)
	var groups []StockGroup
	for _, it := range items {
		variant := StockVariant{ID: it.ID, Size: it.Size, Quantity: it.Quantity}
		key := groupKey{item: it.Item, price: it.Price.StringFixed(2)}
		if idx, ok := byKey[key]; ok {
			groups[idx].Variants = append(groups[idx].Variants, variant)
			continue
		}
		byKey[key] = len(groups)
		groups = append(groups, StockGroup{Item: key.item, Price: key.price, Variants: []StockVariant{variant}})
	}

	return groups, nil
}

// Purchase decrements stock under a row lock, records the movement and audit
// row in one transaction, then emails a purchase report (best effort).
func (s *inventoryService) Purchase(ctx context.Context, itemID int64, buyerID uuid.UUID, quantity int) (*PurchaseResponse, error) {
	var item *model.StockItem

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		item, txErr = s.stock.GetByIDForUpdate(txCtx, itemID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return errors.New("item not found")
			}
			return fmt.Errorf("failed to load stock item: %w", txErr)
		}

		if quantity > item.Quantity {
			return fmt.Errorf("%w: only %d left", ErrInsufficientStock, item.Quantity)
		}

		newQty := item.Quantity - quantity
		if txErr = s.stock.UpdateQuantity(txCtx, itemID, newQty); txErr != nil {
			return fmt.Errorf("failed to update stock: %w", txErr)
		}

		movement := &model.StockMovement{
			StockItemID:     itemID,
			BuyerID:         buyerID,
			QuantityChanged: -quantity,
			StockAfter:      newQty,
		}
		if txErr = s.stock.CreateMovement(txCtx, movement); txErr != nil {
			return fmt.Errorf("failed to record stock movement: %w", txErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"item":     item.Item,
			"size":     item.Size,
			"quantity": quantity,
		})
		entry := &model.AuditLog{
			UserID:     &buyerID,
			Action:     model.ActionPurchaseItem,
			EntityID:   strconv.FormatInt(itemID, 10),
			EntityName: item.Item,
			Details:    string(details),
		}
		if txErr = s.audit.Create(txCtx, entry); txErr != nil {
			return fmt.Errorf("failed to write audit log: %w", txErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	total := item.Price.Mul(decimal.NewFromInt(int64(quantity)))
	go s.sendPurchaseReport(item, buyerID, quantity, total)

	return &PurchaseResponse{
		Item:     item.Item,
		Size:     item.Size,
		Quantity: quantity,
		Total:    total.StringFixed(2),
	}, nil
}

// sendPurchaseReport emails the treasurer and the buyer. A failure is logged
// and never surfaces to the buyer: the purchase itself already went through.
func (s *inventoryService) sendPurchaseReport(item *model.StockItem, buyerID uuid.UUID, quantity int, total decimal.Decimal) {
	treasurer := os.Getenv("TREASURER_EMAIL")
	recipients := []string{}
	if treasurer != "" {
		recipients = append(recipients, treasurer)
	}

	buyerName := buyerID.String()
	buyer, err := s.users.GetByID(context.Background(), buyerID)
	if err == nil {
		buyerName = fmt.Sprintf("%s %s (%s)", buyer.FirstName, buyer.LastName, buyer.Username)
		if buyer.Email != "" {
			recipients = append(recipients, buyer.Email)
		}
	}

	subject := "Team gear purchase: " + time.Now().Format("2006-01-02 15:04:05")
	body := fmt.Sprintf(
		"New purchase:\nBy: %s\nItem: %s (%s)\nQuantity: %d\nUnit price: %s $\nTotal: %s $\n\nPlease send your transfer to the treasurer. Thanks!",
		buyerName, item.Item, item.Size, quantity, item.Price.StringFixed(2), total.StringFixed(2),
	)

	if err := s.mail.Send(recipients, subject, body); err != nil {
		logger.Warn("failed to send purchase report", zap.Error(err))
	}
}
