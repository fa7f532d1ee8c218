package chat

import (
	"time"
)

// Frame type constants for the direct-session wire protocol. The server
// pushes message/prompt/prompt_closed frames; clients send decision frames.
const (
	FrameMessage      = "message"
	FramePrompt       = "prompt"
	FramePromptClosed = "prompt_closed"
	FrameDecision     = "decision"
)

// Reviewer actions carried on prompt frames
const (
	ActionAccept = "accept"
	ActionRefuse = "refuse"
	ActionSkip   = "skip"
	ActionEnd    = "end"
)

// MessageFrame is a plain notification pushed to one user
type MessageFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Image []byte `json:"image,omitempty"` // base64 on the wire
}

// PromptReceipt is the receipt view embedded in a prompt frame
type PromptReceipt struct {
	ID          int64     `json:"id"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	Image       []byte    `json:"image,omitempty"`
}

// PromptFrame presents one receipt with four mutually exclusive actions
type PromptFrame struct {
	Type     string        `json:"type"`
	PromptID string        `json:"prompt_id"`
	Receipt  PromptReceipt `json:"receipt"`
	Actions  []string      `json:"actions"`
}

// PromptClosedFrame replaces the interactive controls once a prompt is
// resolved, so a decided prompt never keeps live actions
type PromptClosedFrame struct {
	Type     string `json:"type"`
	PromptID string `json:"prompt_id"`
	Outcome  string `json:"outcome"`
}

// DecisionFrame is the client's answer to a prompt
type DecisionFrame struct {
	Type     string `json:"type"`
	PromptID string `json:"prompt_id"`
	Action   string `json:"action"`
}
