package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"teambot/internal/model"
	"teambot/pkg/logger"

	"github.com/google/uuid"
)

// PromptResult is the single outcome of one review decision prompt
type PromptResult string

const (
	PromptAccepted PromptResult = "accepted"
	PromptRefused  PromptResult = "refused"
	PromptSkip     PromptResult = "skip"
	PromptEnd      PromptResult = "end"
	PromptTimeout  PromptResult = "timeout"
)

// DecisionTimeout is how long a prompt waits for the reviewer before
// resolving to PromptTimeout.
const DecisionTimeout = 300 * time.Second

// ErrNoSession is returned when a user has no open direct session.
var ErrNoSession = errors.New("user has no open direct session")

// pendingPrompt is one live decision prompt: its one-shot future plus the
// reviewer it belongs to, so only that reviewer's session can answer it.
type pendingPrompt struct {
	future     chan PromptResult
	reviewerID uuid.UUID
}

// Hub maintains one direct session per user and routes frames to and from
// them. It is the chat-platform boundary: notifications go out through
// SendToUser and review prompts block on PromptDecision.
type Hub struct {
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	// one-shot futures keyed by prompt id; claiming a prompt removes it,
	// so exactly one outcome ever wins
	prompts  map[uuid.UUID]*pendingPrompt
	promptMu sync.Mutex

	decisionTimeout time.Duration
}

// NewHub initializes a new direct-session hub
func NewHub() *Hub {
	return &Hub{
		clients:         make(map[uuid.UUID]*Client),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		prompts:         make(map[uuid.UUID]*pendingPrompt),
		decisionTimeout: DecisionTimeout,
	}
}

// Run starts the core dispatch loop for session lifecycle events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.userID]; ok {
				// a newer session replaces the previous one
				close(old.send)
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			logger.Info("direct session opened", userField(client.userID))
		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
				logger.Info("direct session closed", userField(client.userID))
			}
			h.mu.Unlock()
		}
	}
}

// IsConnected reports whether the user has an open direct session
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[userID]
	return ok
}

// SendToUser pushes one notification frame onto the user's direct session
func (h *Hub) SendToUser(userID uuid.UUID, text string, image []byte) error {
	frame := MessageFrame{Type: FrameMessage, Text: text, Image: image}
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode message frame: %w", err)
	}
	return h.sendRaw(userID, payload)
}

// sendRaw holds h.mu across the send: Run closes session channels under the
// same lock, so releasing it between the lookup and the send would leave a
// window to send on a closed channel. The default arm keeps the critical
// section non-blocking.
func (h *Hub) sendRaw(userID uuid.UUID, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[userID]
	if !ok {
		return ErrNoSession
	}

	select {
	case client.send <- payload:
		return nil
	default:
		return fmt.Errorf("send buffer full for user %s", userID)
	}
}

// PromptDecision presents one receipt to the reviewer and blocks until
// exactly one of the four actions is chosen, the timeout elapses, or ctx is
// cancelled. The prompt is presented once; whichever outcome claims the
// one-shot future first wins and the prompt is closed in place.
func (h *Hub) PromptDecision(ctx context.Context, reviewerID uuid.UUID, receipt model.Receipt, image []byte) (PromptResult, error) {
	promptID := uuid.New()
	future := make(chan PromptResult, 1)

	h.promptMu.Lock()
	h.prompts[promptID] = &pendingPrompt{future: future, reviewerID: reviewerID}
	h.promptMu.Unlock()

	frame := PromptFrame{
		Type:     FramePrompt,
		PromptID: promptID.String(),
		Receipt: PromptReceipt{
			ID:          receipt.ID,
			Amount:      receipt.Amount.StringFixed(2),
			Description: receipt.Description,
			OwnerID:     receipt.OwnerID.String(),
			CreatedAt:   receipt.CreatedAt,
			Image:       image,
		},
		Actions: []string{ActionAccept, ActionRefuse, ActionSkip, ActionEnd},
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		h.discardPrompt(promptID)
		return "", fmt.Errorf("failed to encode prompt frame: %w", err)
	}
	if err := h.sendRaw(reviewerID, payload); err != nil {
		h.discardPrompt(promptID)
		return "", fmt.Errorf("failed to deliver prompt: %w", err)
	}

	timer := time.NewTimer(h.decisionTimeout)
	defer timer.Stop()

	var result PromptResult
	select {
	case result = <-future:
	case <-timer.C:
		h.resolve(promptID, PromptTimeout)
		result = <-future
	case <-ctx.Done():
		h.resolve(promptID, PromptEnd)
		result = <-future
	}

	h.closePrompt(reviewerID, promptID, result)
	return result, nil
}

// resolve claims the prompt's one-shot future. It reports false when the
// prompt was already resolved (or never existed), which makes a second
// button press a no-op.
func (h *Hub) resolve(promptID uuid.UUID, result PromptResult) bool {
	h.promptMu.Lock()
	prompt, ok := h.prompts[promptID]
	if ok {
		delete(h.prompts, promptID)
	}
	h.promptMu.Unlock()
	if !ok {
		return false
	}
	prompt.future <- result
	return true
}

// resolveFrom is resolve restricted to the prompt's own reviewer; frames
// from any other session leave the prompt live.
func (h *Hub) resolveFrom(senderID, promptID uuid.UUID, result PromptResult) bool {
	h.promptMu.Lock()
	prompt, ok := h.prompts[promptID]
	if ok && prompt.reviewerID != senderID {
		h.promptMu.Unlock()
		logger.Warn("decision from foreign session ignored", userField(senderID))
		return false
	}
	if ok {
		delete(h.prompts, promptID)
	}
	h.promptMu.Unlock()
	if !ok {
		return false
	}
	prompt.future <- result
	return true
}

func (h *Hub) discardPrompt(promptID uuid.UUID) {
	h.promptMu.Lock()
	delete(h.prompts, promptID)
	h.promptMu.Unlock()
}

// closePrompt invalidates the prompt's controls client-side, best effort
func (h *Hub) closePrompt(reviewerID, promptID uuid.UUID, result PromptResult) {
	frame := PromptClosedFrame{
		Type:     FramePromptClosed,
		PromptID: promptID.String(),
		Outcome:  string(result),
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	if err := h.sendRaw(reviewerID, payload); err != nil {
		logger.Warn("failed to close prompt: " + err.Error())
	}
}

// handleDecision routes an inbound decision frame from a client
func (h *Hub) handleDecision(client *Client, raw []byte) {
	var frame DecisionFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != FrameDecision {
		return
	}
	promptID, err := uuid.Parse(frame.PromptID)
	if err != nil {
		return
	}

	var result PromptResult
	switch frame.Action {
	case ActionAccept:
		result = PromptAccepted
	case ActionRefuse:
		result = PromptRefused
	case ActionSkip:
		result = PromptSkip
	case ActionEnd:
		result = PromptEnd
	default:
		return
	}

	if !h.resolveFrom(client.userID, promptID, result) {
		logger.Debug("stale decision ignored", userField(client.userID))
	}
}
