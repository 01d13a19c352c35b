package bot

import (
	"coup/internal/domain"
)

// Decision is a bot's chosen reaction to the current session state. Exactly
// one of the fields is meaningful, keyed by Kind.
type Decision struct {
	Kind DecisionKind

	Action   domain.ActionType
	TargetID string

	Response  domain.ResponseType
	BlockRole domain.Role

	// KeptCardIDs answers an exchange offer.
	KeptCardIDs []int
	// ReturnCardID answers a post-challenge return.
	ReturnCardID int
}

type DecisionKind int

const (
	DecideNothing DecisionKind = iota
	DecideAction
	DecideResponse
	DecideExchange
	DecideReturn
)

// Brain is the interface that all bot strategies must implement. Brains run
// inside the match loop, so they see the authoritative session but must not
// mutate it.
type Brain interface {
	Decide(sess *domain.Session, player *domain.Player) (Decision, error)
}
