package service

import (
	"context"
	"errors"
	"fmt"

	"teambot/internal/chat"
	"teambot/internal/model"
	"teambot/internal/repository"
	"teambot/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotAuthorized is returned when a non-admin tries to start a validation
// run. The run never starts and nothing is mutated.
var ErrNotAuthorized = errors.New("only admins may run receipt validation")

// ReceiptStore is the persistence boundary the orchestrator consumes. It is
// the sole authority for decision conflicts: SetDecision fails with
// repository.ErrReceiptConflict when the receipt already left pending.
type ReceiptStore interface {
	ListPending(ctx context.Context) ([]model.Receipt, error)
	FetchImage(ctx context.Context, id int64) ([]byte, error)
	SetDecision(ctx context.Context, id int64, state string, approverID uuid.UUID) error
}

// Notifier delivers a message (optionally with an image) to one user
type Notifier interface {
	SendToUser(userID uuid.UUID, text string, image []byte) error
}

// DecisionPrompter presents one receipt to the reviewer and blocks until a
// single outcome is produced
type DecisionPrompter interface {
	PromptDecision(ctx context.Context, reviewerID uuid.UUID, receipt model.Receipt, image []byte) (chat.PromptResult, error)
}

// UserDirectory looks up users for the authorization gate and notifications
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// RunStatus tracks one validation run: Idle → Running → Completed | Aborted
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// RunSummary reports the outcome of one full validation pass
type RunSummary struct {
	Status      RunStatus `json:"status"`
	Total       int       `json:"total"`
	Accepted    int       `json:"accepted"`
	Refused     int       `json:"refused"`
	Skipped     int       `json:"skipped"`
	AutoSkipped int       `json:"auto_skipped"`
	Failed      bool      `json:"failed"` // true when the run stopped on an error, not the reviewer
}

// ValidationService drives the sequential review of pending receipts
type ValidationService interface {
	Run(ctx context.Context, reviewerID uuid.UUID) (RunSummary, error)
}

type validationService struct {
	store    ReceiptStore
	users    UserDirectory
	notifier Notifier
	prompter DecisionPrompter
}

func NewValidationService(store ReceiptStore, users UserDirectory, notifier Notifier, prompter DecisionPrompter) ValidationService {
	return &validationService{
		store:    store,
		users:    users,
		notifier: notifier,
		prompter: prompter,
	}
}

// Run fetches the pending receipts once, in created_at order, and walks them
// one at a time through the reviewer's decision prompt. Receipts owned by the
// reviewer are auto-skipped. Applied decisions are final regardless of how
// the run ends. Errors from the store or the notifier never propagate past
// this method; the reviewer always receives a final summary message.
func (s *validationService) Run(ctx context.Context, reviewerID uuid.UUID) (summary RunSummary, err error) {
	summary.Status = RunIdle

	reviewer, lookupErr := s.users.GetByID(ctx, reviewerID)
	if lookupErr != nil || reviewer.Role != model.RoleAdmin {
		return summary, ErrNotAuthorized
	}

	// A run must never crash the hosting process; anything unexpected ends
	// it in Aborted with a plain-language message to the reviewer.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("validation run panicked", zap.Any("cause", r), userField(reviewerID))
			summary.Status = RunAborted
			summary.Failed = true
			s.notify(reviewerID, "Receipt validation stopped because of an internal error.")
			s.sendSummary(reviewerID, summary)
			err = fmt.Errorf("validation run failed: %v", r)
		}
	}()

	pending, listErr := s.store.ListPending(ctx)
	if listErr != nil {
		logger.Error("failed to list pending receipts", zap.Error(listErr))
		summary.Status = RunAborted
		summary.Failed = true
		s.notify(reviewerID, "Receipt validation could not start: the pending list is unavailable.")
		s.sendSummary(reviewerID, summary)
		return summary, nil
	}

	if len(pending) == 0 {
		summary.Status = RunCompleted
		s.notify(reviewerID, "No pending receipts to validate.")
		s.sendSummary(reviewerID, summary)
		return summary, nil
	}

	summary.Status = RunRunning
	summary.Total = len(pending)

	// The list is fixed for the whole run; receipts created after this
	// point wait for the next run.
	for _, rec := range pending {
		if rec.OwnerID == reviewerID {
			// conflict of interest: never prompt a reviewer for their own receipt
			summary.AutoSkipped++
			s.notify(reviewerID, fmt.Sprintf("Receipt #%d skipped automatically: you submitted it.", rec.ID))
			continue
		}

		image, imgErr := s.store.FetchImage(ctx, rec.ID)
		if imgErr != nil {
			// presentation only, the review can proceed without it
			logger.Warn("failed to fetch receipt image", zap.Int64("receipt", rec.ID), zap.Error(imgErr))
			image = nil
		}

		result, promptErr := s.prompter.PromptDecision(ctx, reviewerID, rec, image)
		if promptErr != nil {
			logger.Error("decision prompt failed", zap.Int64("receipt", rec.ID), zap.Error(promptErr))
			summary.Status = RunAborted
			summary.Failed = true
			s.notify(reviewerID, fmt.Sprintf("Could not present receipt #%d; stopping validation.", rec.ID))
			break
		}

		switch result {
		case chat.PromptAccepted, chat.PromptRefused:
			state := model.ReceiptAccepted
			if result == chat.PromptRefused {
				state = model.ReceiptRefused
			}
			if applyErr := s.store.SetDecision(ctx, rec.ID, state, reviewerID); applyErr != nil {
				summary.Status = RunAborted
				summary.Failed = true
				s.reportApplyFailure(reviewerID, rec.ID, applyErr)
				break
			}
			if state == model.ReceiptAccepted {
				summary.Accepted++
			} else {
				summary.Refused++
			}
			go s.notifyOwner(rec, state, reviewer)
		case chat.PromptSkip:
			summary.Skipped++
		case chat.PromptEnd, chat.PromptTimeout:
			// both halt the run; only the logs tell them apart
			if result == chat.PromptTimeout {
				logger.Info("validation run halted by prompt timeout", zap.Int64("receipt", rec.ID), userField(reviewerID))
			} else {
				logger.Info("validation run ended by reviewer", zap.Int64("receipt", rec.ID), userField(reviewerID))
			}
			summary.Status = RunAborted
		default:
			logger.Error("unknown prompt result", zap.String("result", string(result)))
			summary.Status = RunAborted
			summary.Failed = true
		}

		if summary.Status == RunAborted {
			break
		}
	}

	if summary.Status == RunRunning {
		summary.Status = RunCompleted
	}

	s.sendSummary(reviewerID, summary)
	return summary, nil
}

// notify sends a best-effort message to one user; failures are logged only
func (s *validationService) notify(userID uuid.UUID, text string) {
	if err := s.notifier.SendToUser(userID, text, nil); err != nil {
		logger.Warn("failed to deliver notification", userField(userID), zap.Error(err))
	}
}

func (s *validationService) reportApplyFailure(reviewerID uuid.UUID, receiptID int64, applyErr error) {
	if errors.Is(applyErr, repository.ErrReceiptConflict) || errors.Is(applyErr, repository.ErrReceiptNotFound) {
		logger.Warn("decision conflict", zap.Int64("receipt", receiptID), zap.Error(applyErr))
		s.notify(reviewerID, fmt.Sprintf("Receipt #%d was already decided elsewhere; stopping validation.", receiptID))
		return
	}
	logger.Error("failed to persist decision", zap.Int64("receipt", receiptID), zap.Error(applyErr))
	s.notify(reviewerID, fmt.Sprintf("Could not record the decision for receipt #%d; stopping validation.", receiptID))
}

// notifyOwner tells the submitter the outcome. Best effort: a failure is
// logged and never rolls back or aborts anything.
func (s *validationService) notifyOwner(rec model.Receipt, state string, reviewer *model.User) {
	verb := "accepted"
	if state == model.ReceiptRefused {
		verb = "refused"
	}
	text := fmt.Sprintf("Your receipt #%d (%s $) was %s by %s.", rec.ID, rec.Amount.StringFixed(2), verb, reviewer.Username)
	if err := s.notifier.SendToUser(rec.OwnerID, text, nil); err != nil {
		logger.Warn("failed to notify receipt owner", zap.Int64("receipt", rec.ID), zap.Error(err))
	}
}

func (s *validationService) sendSummary(reviewerID uuid.UUID, summary RunSummary) {
	var text string
	switch {
	case summary.Failed:
		text = "Validation stopped due to an error."
	case summary.Status == RunAborted:
		text = "Validation ended early."
	default:
		text = "Validation completed: all pending receipts were reviewed."
	}
	text += fmt.Sprintf(" Accepted: %d, refused: %d, skipped: %d, auto-skipped: %d (of %d pending).",
		summary.Accepted, summary.Refused, summary.Skipped, summary.AutoSkipped, summary.Total)

	if err := s.notifier.SendToUser(reviewerID, text, nil); err != nil {
		logger.Warn("failed to deliver run summary", zap.Error(err))
	}
}

func userField(id uuid.UUID) zap.Field {
	return zap.String("user", id.String())
}
