package domain

import "math/rand"

// Player holds the per-seat state for a session participant.
type Player struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Coins       int    `json:"coins"`
	Hand        []Card `json:"hand"`
	// Active is false once the player is eliminated or removed.
	Active    bool `json:"active"`
	Connected bool `json:"connected"`
	IsBot     bool `json:"is_bot"`
	// GraceDeadline is the tick at which a disconnected player forfeits
	// their seat. Zero means no grace timer is armed.
	GraceDeadline int64 `json:"grace_deadline,omitempty"`
}

// Influence is the count of unrevealed cards. It is always recomputed from
// hand contents, never stored, so it cannot drift.
func (p *Player) Influence() int {
	n := 0
	for _, c := range p.Hand {
		if !c.Revealed {
			n++
		}
	}
	return n
}

// HiddenCards returns the player's unrevealed cards in hand order.
func (p *Player) HiddenCards() []Card {
	out := make([]Card, 0, len(p.Hand))
	for _, c := range p.Hand {
		if !c.Revealed {
			out = append(out, c)
		}
	}
	return out
}

// HasHiddenRole reports whether an unrevealed card of the given role is held.
func (p *Player) HasHiddenRole(role Role) bool {
	for _, c := range p.Hand {
		if !c.Revealed && c.Role == role {
			return true
		}
	}
	return false
}

// CardByID returns the hand index of the card with the given ID, or -1.
func (p *Player) CardByID(id int) int {
	for i, c := range p.Hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// RevealRandomHidden flips one random unrevealed card face up and returns it.
// Returns false when the player has no influence left to lose.
func (p *Player) RevealRandomHidden(rng *rand.Rand) (Card, bool) {
	hidden := make([]int, 0, len(p.Hand))
	for i, c := range p.Hand {
		if !c.Revealed {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return Card{}, false
	}
	idx := hidden[rng.Intn(len(hidden))]
	p.Hand[idx].Revealed = true
	return p.Hand[idx], true
}

// RevealAll flips every card face up. Used when a player forfeits.
func (p *Player) RevealAll() {
	for i := range p.Hand {
		p.Hand[i].Revealed = true
	}
}

// RemoveHiddenCard removes the unrevealed card with the given ID from the
// hand and returns it. Returns false if the card is missing or revealed.
func (p *Player) RemoveHiddenCard(id int) (Card, bool) {
	idx := p.CardByID(id)
	if idx < 0 || p.Hand[idx].Revealed {
		return Card{}, false
	}
	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	return card, true
}
