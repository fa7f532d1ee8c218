package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"teambot/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrReceiptNotFound is returned when a receipt id does not exist (anymore).
	ErrReceiptNotFound = errors.New("receipt not found")
	// ErrReceiptConflict is returned when a decision cannot be applied because
	// the receipt already left the pending state (race with another reviewer).
	ErrReceiptConflict = errors.New("receipt is no longer pending")
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.Receipt) error
	ListPending(ctx context.Context) ([]model.Receipt, error)
	FetchImage(ctx context.Context, id int64) ([]byte, error)
	SetDecision(ctx context.Context, id int64, state string, approverID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Receipt, decimal.Decimal, error)
	DeleteOwned(ctx context.Context, id int64, ownerID uuid.UUID) error
	ListAll(ctx context.Context) ([]model.Receipt, error)
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *model.Receipt) error {
	return GetDB(ctx, r.db).Create(receipt).Error
}

// ListPending returns pending receipts oldest first. The secondary id order
// keeps runs deterministic when receipts share a creation timestamp. The
// image column is excluded; prompts fetch it per receipt.
func (r *receiptRepository) ListPending(ctx context.Context) ([]model.Receipt, error) {
	var receipts []model.Receipt
	if err := GetDB(ctx, r.db).
		Omit("image").
		Where("state = ?", model.ReceiptPending).
		Order("created_at ASC, id ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) FetchImage(ctx context.Context, id int64) ([]byte, error) {
	var receipt model.Receipt
	if err := GetDB(ctx, r.db).Select("image").First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt.Image, nil
}

// SetDecision atomically moves one pending receipt to accepted/refused and
// records the approver, with an audit row in the same transaction. The state
// guard in the UPDATE makes the store the sole authority against concurrent
// reviewers: a second decision for the same receipt fails with
// ErrReceiptConflict instead of overwriting the first.
func (r *receiptRepository) SetDecision(ctx context.Context, id int64, state string, approverID uuid.UUID) error {
	if state != model.ReceiptAccepted && state != model.ReceiptRefused {
		return fmt.Errorf("invalid decision state: %s", state)
	}

	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Receipt{}).
			Where("id = ? AND state = ?", id, model.ReceiptPending).
			Updates(map[string]interface{}{
				"state":       state,
				"approver_id": approverID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to apply decision: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var cnt int64
			if err := tx.Model(&model.Receipt{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
				return fmt.Errorf("failed to check receipt existence: %w", err)
			}
			if cnt == 0 {
				return ErrReceiptNotFound
			}
			return ErrReceiptConflict
		}

		action := model.ActionAcceptReceipt
		if state == model.ReceiptRefused {
			action = model.ActionRefuseReceipt
		}
		details, _ := json.Marshal(map[string]interface{}{
			"receipt_id": id,
			"state":      state,
		})
		audit := model.AuditLog{
			UserID:   &approverID,
			Action:   action,
			EntityID: strconv.FormatInt(id, 10),
			Details:  string(details),
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return nil
	})
}

// ListByOwner returns one user's receipts newest first plus their amount total
func (r *receiptRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Receipt, decimal.Decimal, error) {
	var receipts []model.Receipt
	db := GetDB(ctx, r.db)
	if err := db.
		Omit("image").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&receipts).Error; err != nil {
		return nil, decimal.Zero, err
	}

	var total decimal.NullDecimal
	if err := db.Model(&model.Receipt{}).
		Where("owner_id = ?", ownerID).
		Select("SUM(amount)").
		Scan(&total).Error; err != nil {
		return nil, decimal.Zero, err
	}
	if !total.Valid {
		return receipts, decimal.Zero, nil
	}
	return receipts, total.Decimal, nil
}

// DeleteOwned removes a receipt only when it belongs to ownerID
func (r *receiptRepository) DeleteOwned(ctx context.Context, id int64, ownerID uuid.UUID) error {
	res := GetDB(ctx, r.db).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Receipt{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

// ListAll returns every receipt oldest first with owners preloaded, for the
// admin summary
func (r *receiptRepository) ListAll(ctx context.Context) ([]model.Receipt, error) {
	var receipts []model.Receipt
	if err := GetDB(ctx, r.db).
		Omit("image").
		Preload("Owner").
		Order("created_at ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}
