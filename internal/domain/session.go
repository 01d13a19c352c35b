package domain

import "time"

// Session is the aggregate root for one game room. All mutation happens
// inside the owning match loop; nothing here is shared across sessions.
type Session struct {
	ID       string `json:"id"`
	JoinCode string `json:"join_code"`
	Name     string `json:"name"`
	Public   bool   `json:"public"`
	Capacity int    `json:"capacity"`

	// Players in seating order. Seats are stable for the whole session;
	// eliminated or removed players stay in the slice with Active=false so
	// turn rotation indexes never shift.
	Players    []*Player `json:"players"`
	Spectators []string  `json:"spectators,omitempty"`

	Deck Deck `json:"deck"`

	// CurrentSeat indexes Players. Turn advancement walks seats from here,
	// which stays correct even if the current actor was just eliminated.
	CurrentSeat int   `json:"current_seat"`
	Phase       Phase `json:"phase"`

	Pending *PendingResolution `json:"pending,omitempty"`
	// ResolutionSeq issues generation stamps for pending deadlines.
	ResolutionSeq uint64 `json:"resolution_seq"`

	Log []LogEntry `json:"log,omitempty"`

	LeaderID string `json:"leader_id"`
	WinnerID string `json:"winner_id,omitempty"`

	// EmptyDeadline is the tick at which a session with no connected human
	// players is deleted. Zero means the timer is not armed.
	EmptyDeadline int64 `json:"empty_deadline,omitempty"`
}

// LogEntry is one append-only audit record of a resolved transition.
type LogEntry struct {
	At       time.Time `json:"at"`
	ActorID  string    `json:"actor_id"`
	Action   string    `json:"action"`
	TargetID string    `json:"target_id,omitempty"`
	Note     string    `json:"note,omitempty"`
}

// MinPlayers and MaxPlayers bound session capacity.
const (
	MinPlayers = 2
	MaxPlayers = 6
)

// PlayerByID returns the player with the given user ID, or nil.
func (s *Session) PlayerByID(userID string) *Player {
	for _, p := range s.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// SeatOf returns the seat index for a user ID, or -1.
func (s *Session) SeatOf(userID string) int {
	for i, p := range s.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

// CurrentActor returns the player whose turn it is, or nil outside a game.
func (s *Session) CurrentActor() *Player {
	if s.Phase != PhaseInProgress || s.CurrentSeat < 0 || s.CurrentSeat >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentSeat]
}

// ActivePlayers returns the players still holding influence.
func (s *Session) ActivePlayers() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// EligibleResponders lists the user IDs owed a response for the pending
// resolution: every active player except the initiator (awaiting_responses)
// or except the blocker (block_attempt).
func (s *Session) EligibleResponders() []string {
	if s.Pending == nil {
		return nil
	}
	var excluded string
	switch s.Pending.Kind {
	case ResolutionAwaitingResponses:
		excluded = s.Pending.InitiatorID
	case ResolutionBlockAttempt:
		excluded = s.Pending.BlockerID
	default:
		return nil
	}
	out := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Active && p.UserID != excluded {
			out = append(out, p.UserID)
		}
	}
	return out
}

// AllResponded reports whether every eligible responder has answered.
func (s *Session) AllResponded() bool {
	if s.Pending == nil {
		return false
	}
	for _, id := range s.EligibleResponders() {
		if !s.Pending.HasResponded(id) {
			return false
		}
	}
	return true
}

// ConnectedHumans counts connected non-bot players and spectators. The
// session is deletable once this reaches zero and the empty grace elapses.
func (s *Session) ConnectedHumans() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected && !p.IsBot {
			n++
		}
	}
	return n
}

// OpenSeats returns how many more players can join the lobby.
func (s *Session) OpenSeats() int {
	return s.Capacity - len(s.Players)
}

// CardsInPlay counts deck plus all hands plus any cards sitting in an open
// exchange offer. Always equals TotalCards while a game is in progress.
func (s *Session) CardsInPlay() int {
	n := len(s.Deck)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	if s.Pending != nil && s.Pending.Kind == ResolutionExchangeSelect {
		n += len(s.Pending.Offered)
	}
	return n
}

// LabelPayload carries the values advertised in the match label for
// discovery queries.
type LabelPayload struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
	Code  string `json:"code"`
}

// ComputeLabel derives the advertised label from session state. Private
// sessions never advertise open seats so quick match skips them.
func ComputeLabel(s *Session) LabelPayload {
	open := 0
	if s.Public && s.Phase == PhaseLobby {
		open = s.OpenSeats()
	}
	return LabelPayload{Open: open, Game: "coup", Phase: string(s.Phase), Code: s.JoinCode}
}
