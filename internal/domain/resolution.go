package domain

// ResolutionKind discriminates the pending-resolution variants.
type ResolutionKind string

const (
	// ResolutionAwaitingResponses collects pass/block/challenge from every
	// active non-initiator.
	ResolutionAwaitingResponses ResolutionKind = "awaiting_responses"
	// ResolutionBlockAttempt collects pass/challenge against a declared block.
	ResolutionBlockAttempt ResolutionKind = "block_attempt"
	// ResolutionExchangeSelect waits for the initiator to pick kept cards.
	ResolutionExchangeSelect ResolutionKind = "exchange_select"
	// ResolutionReturnCard waits for a player who drew a replacement after a
	// failed challenge to return one hidden card to the deck.
	ResolutionReturnCard ResolutionKind = "return_card"
)

// ResponseType is a player's answer while responses are being collected.
type ResponseType string

const (
	ResponsePass      ResponseType = "pass"
	ResponseBlock     ResponseType = "block"
	ResponseChallenge ResponseType = "challenge"
)

// PendingResolution tracks an in-flight action through the response and
// sub-resolution protocol. It is a tagged variant: Kind selects which
// fields are meaningful.
type PendingResolution struct {
	Kind ResolutionKind `json:"kind"`
	// Generation stamps every (re)armed deadline. A deadline firing for a
	// stale generation is a no-op, which guards against superseded timers.
	Generation uint64 `json:"generation"`

	Action      ActionType `json:"action"`
	InitiatorID string     `json:"initiator_id"`
	TargetID    string     `json:"target_id,omitempty"`

	// Responses maps responder user ID to their submitted answer. Used by
	// the awaiting_responses and block_attempt variants.
	Responses map[string]ResponseType `json:"responses,omitempty"`

	// Block_attempt fields.
	BlockerID string `json:"blocker_id,omitempty"`
	BlockRole Role   `json:"block_role,omitempty"`

	// Exchange_select fields: the initiator's hidden cards plus the drawn
	// ones; exactly len(Offered)-2 must be kept.
	Offered []Card `json:"offered,omitempty"`

	// Return_card fields. ResumeAction marks whether the original action
	// effect still executes once the card is returned (true after a failed
	// challenge against the initiator, false when a block stood).
	ReturnerID   string `json:"returner_id,omitempty"`
	ResumeAction bool   `json:"resume_action,omitempty"`

	// Deadline is the tick at which the resolution auto-resolves.
	Deadline int64 `json:"deadline"`
}

// Owner returns the user whose decision the resolution is waiting on, or ""
// when it is waiting on a group of responders.
func (pr *PendingResolution) Owner() string {
	switch pr.Kind {
	case ResolutionExchangeSelect:
		return pr.InitiatorID
	case ResolutionReturnCard:
		return pr.ReturnerID
	}
	return ""
}

// HasResponded reports whether the given user already answered.
func (pr *PendingResolution) HasResponded(userID string) bool {
	_, ok := pr.Responses[userID]
	return ok
}
