package app

import "coup/internal/domain"

// EventKind identifies emitted engine events for adapter dispatch.
type EventKind string

const (
	EventPlayerJoined       EventKind = "player_joined"
	EventPlayerLeft         EventKind = "player_left"
	EventPlayerDisconnected EventKind = "player_disconnected"
	EventPlayerReconnected  EventKind = "player_reconnected"
	EventPlayerRemoved      EventKind = "player_removed"
	EventLeaderChanged      EventKind = "leader_changed"
	EventGameStarted        EventKind = "game_started"
	EventHandDealt          EventKind = "hand_dealt"
	EventActionProposed     EventKind = "action_proposed"
	EventResponseSubmitted  EventKind = "response_submitted"
	EventBlockDeclared      EventKind = "block_declared"
	EventChallengeResolved  EventKind = "challenge_resolved"
	EventInfluenceLost      EventKind = "influence_lost"
	EventActionExecuted     EventKind = "action_executed"
	EventActionCancelled    EventKind = "action_cancelled"
	EventExchangeOffer      EventKind = "exchange_offer"
	EventExchangeCompleted  EventKind = "exchange_completed"
	EventCardReturned       EventKind = "card_returned"
	EventTurnChanged        EventKind = "turn_changed"
	EventPlayerEliminated   EventKind = "player_eliminated"
	EventGameEnded          EventKind = "game_ended"
)

// Event is an engine event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Seat        int    `json:"seat"`
	IsBot       bool   `json:"is_bot"`
	Leader      bool   `json:"leader"`
}

type PlayerLeftPayload struct {
	UserID string `json:"user_id"`
}

type PlayerPresencePayload struct {
	UserID string `json:"user_id"`
	// GraceDeadline is set on disconnect so clients can show a countdown.
	GraceDeadline int64 `json:"grace_deadline,omitempty"`
}

type PlayerRemovedPayload struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type LeaderChangedPayload struct {
	LeaderID string `json:"leader_id"`
}

type GameStartedPayload struct {
	FirstActorID string `json:"first_actor_id"`
	DeckCount    int    `json:"deck_count"`
}

type HandDealtPayload struct {
	UserID string        `json:"user_id"`
	Hand   []domain.Card `json:"hand"`
}

type ActionProposedPayload struct {
	InitiatorID string            `json:"initiator_id"`
	Action      domain.ActionType `json:"action"`
	TargetID    string            `json:"target_id,omitempty"`
	Deadline    int64             `json:"deadline"`
}

type ResponseSubmittedPayload struct {
	UserID   string              `json:"user_id"`
	Response domain.ResponseType `json:"response"`
}

type BlockDeclaredPayload struct {
	BlockerID string            `json:"blocker_id"`
	Action    domain.ActionType `json:"action"`
	BlockRole domain.Role       `json:"block_role"`
	Deadline  int64             `json:"deadline"`
}

type ChallengeResolvedPayload struct {
	ChallengerID string            `json:"challenger_id"`
	ClaimantID   string            `json:"claimant_id"`
	ClaimedRole  domain.Role       `json:"claimed_role"`
	Action       domain.ActionType `json:"action"`
	// Upheld is true when the claimant was bluffing (challenge succeeded).
	Upheld bool `json:"upheld"`
}

type InfluenceLostPayload struct {
	UserID        string      `json:"user_id"`
	RevealedRole  domain.Role `json:"revealed_role"`
	InfluenceLeft int         `json:"influence_left"`
}

type ActionExecutedPayload struct {
	InitiatorID string            `json:"initiator_id"`
	Action      domain.ActionType `json:"action"`
	TargetID    string            `json:"target_id,omitempty"`
}

type ActionCancelledPayload struct {
	InitiatorID string            `json:"initiator_id"`
	Action      domain.ActionType `json:"action"`
	Reason      string            `json:"reason"`
}

type ExchangeOfferPayload struct {
	UserID   string        `json:"user_id"`
	Offered  []domain.Card `json:"offered"`
	Keep     int           `json:"keep"`
	Deadline int64         `json:"deadline"`
}

type ExchangeCompletedPayload struct {
	UserID string `json:"user_id"`
}

type CardReturnedPayload struct {
	UserID string `json:"user_id"`
}

type TurnChangedPayload struct {
	ActorID string `json:"actor_id"`
}

type PlayerEliminatedPayload struct {
	UserID string `json:"user_id"`
}

type GameEndedPayload struct {
	WinnerID string `json:"winner_id"`
}
