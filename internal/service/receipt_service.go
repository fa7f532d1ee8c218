package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"teambot/internal/model"
	"teambot/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateReceiptRequest struct {
	Amount      decimal.Decimal
	Description string
	Image       []byte
}

// ReceiptResponse returns a receipt without its image payload
type ReceiptResponse struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
}

// OwnReceiptsResponse lists one member's receipts with their amount total
type OwnReceiptsResponse struct {
	Receipts []ReceiptResponse `json:"receipts"`
	Total    string            `json:"total"`
}

// UserReceiptSummary is one member's block in the admin summary
type UserReceiptSummary struct {
	Username  string            `json:"username"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Receipts  []ReceiptResponse `json:"receipts"`
	Total     string            `json:"total"`
}

// ReceiptSummaryResponse is the admin-only overview of every receipt
type ReceiptSummaryResponse struct {
	Users      []UserReceiptSummary `json:"users"`
	GrandTotal string               `json:"grand_total"`
}

// ReceiptService covers receipt submission and browsing; review decisions
// belong to ValidationService
type ReceiptService interface {
	CreateReceipt(ctx context.Context, ownerID uuid.UUID, req CreateReceiptRequest) (*ReceiptResponse, error)
	ListOwn(ctx context.Context, ownerID uuid.UUID) (*OwnReceiptsResponse, error)
	DeleteOwn(ctx context.Context, id int64, ownerID uuid.UUID) error
	Summary(ctx context.Context) (*ReceiptSummaryResponse, error)
}

type receiptService struct {
	receipts repository.ReceiptRepository
	audit    repository.AuditRepository
	txm      repository.TransactionManager
}

func NewReceiptService(receipts repository.ReceiptRepository, audit repository.AuditRepository, txm repository.TransactionManager) ReceiptService {
	return &receiptService{receipts: receipts, audit: audit, txm: txm}
}

func toReceiptResponse(r model.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:          r.ID,
		Amount:      r.Amount.StringFixed(2),
		Description: r.Description,
		State:       r.State,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

func (s *receiptService) CreateReceipt(ctx context.Context, ownerID uuid.UUID, req CreateReceiptRequest) (*ReceiptResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("amount must be positive")
	}

	receipt := &model.Receipt{
		OwnerID:     ownerID,
		Amount:      req.Amount.Round(2),
		Description: req.Description,
		Image:       req.Image,
		State:       model.ReceiptPending,
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.receipts.Create(txCtx, receipt); createErr != nil {
			return fmt.Errorf("failed to create receipt: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"amount":      receipt.Amount.StringFixed(2),
			"description": receipt.Description,
		})
		entry := &model.AuditLog{
			UserID:   &ownerID,
			Action:   model.ActionCreateReceipt,
			EntityID: strconv.FormatInt(receipt.ID, 10),
			Details:  string(details),
		}
		if auditErr := s.audit.Create(txCtx, entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toReceiptResponse(*receipt)
	return &resp, nil
}

func (s *receiptService) ListOwn(ctx context.Context, ownerID uuid.UUID) (*OwnReceiptsResponse, error) {
	receipts, total, err := s.receipts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	resp := &OwnReceiptsResponse{
		Receipts: make([]ReceiptResponse, 0, len(receipts)),
		Total:    total.StringFixed(2),
	}
	for _, r := range receipts {
		resp.Receipts = append(resp.Receipts, toReceiptResponse(r))
	}

	return resp, nil
}

func (s *receiptService) DeleteOwn(ctx context.Context, id int64, ownerID uuid.UUID) error {
	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.receipts.DeleteOwned(txCtx, id, ownerID); err != nil {
			return err
		}

		entry := &model.AuditLog{
			UserID:   &ownerID,
			Action:   model.ActionDeleteReceipt,
			EntityID: strconv.FormatInt(id, 10),
			Details:  "{}",
		}
		return s.audit.Create(txCtx, entry)
	})
}

// Summary groups every receipt by owner with per-member and grand totals
func (s *receiptService) Summary(ctx context.Context) (*ReceiptSummaryResponse, error) {
	receipts, err := s.receipts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	byOwner := make(map[uuid.UUID]*UserReceiptSummary)
	order := []uuid.UUID{}
	totals := make(map[uuid.UUID]decimal.Decimal)
	grand := decimal.Zero

	for _, r := range receipts {
		entry, ok := byOwner[r.OwnerID]
		if !ok {
			entry = &UserReceiptSummary{}
			if r.Owner != nil {
				entry.Username = r.Owner.Username
				entry.FirstName = r.Owner.FirstName
				entry.LastName = r.Owner.LastName
			}
			byOwner[r.OwnerID] = entry
			order = append(order, r.OwnerID)
			totals[r.OwnerID] = decimal.Zero
		}
		entry.Receipts = append(entry.Receipts, toReceiptResponse(r))
		totals[r.OwnerID] = totals[r.OwnerID].Add(r.Amount)
		grand = grand.Add(r.Amount)
	}

	resp := &ReceiptSummaryResponse{GrandTotal: grand.StringFixed(2)}
	for _, id := range order {
		entry := byOwner[id]
		entry.Total = totals[id].StringFixed(2)
		resp.Users = append(resp.Users, *entry)
	}

	return resp, nil
}
