package domain

// Phase represents the lifecycle stage of a Coup session.
type Phase string

const (
	// PhaseLobby indicates the session is waiting for players.
	PhaseLobby Phase = "lobby"
	// PhaseInProgress indicates a game is actively running.
	PhaseInProgress Phase = "in_progress"
	// PhaseFinished indicates the game has concluded.
	PhaseFinished Phase = "finished"
)

// Role identifies one of the five Coup influence cards.
type Role string

const (
	RoleDuke       Role = "duke"
	RoleAssassin   Role = "assassin"
	RoleCaptain    Role = "captain"
	RoleAmbassador Role = "ambassador"
	RoleContessa   Role = "contessa"
)

// Roles lists the canonical roles in deck order.
var Roles = []Role{RoleDuke, RoleAssassin, RoleCaptain, RoleAmbassador, RoleContessa}

// CopiesPerRole is the number of copies of each role in the deck.
const CopiesPerRole = 3

// TotalCards is the card count for a session. Cards move between the deck
// and hands but are never created or destroyed mid-game.
const TotalCards = CopiesPerRole * 5

// Card is a single influence card. The ID is stable for the lifetime of a
// session so clients can reference cards in exchange/return selections.
type Card struct {
	ID       int  `json:"id"`
	Role     Role `json:"role"`
	Revealed bool `json:"revealed"`
}
