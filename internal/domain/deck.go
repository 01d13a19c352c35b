package domain

import "math/rand"

// Deck is the central ordered card stack. Index 0 is the top.
type Deck []Card

// NewDeck produces the full ordered 15-card deck (3 copies of 5 roles) with
// stable card IDs assigned in creation order.
func NewDeck() Deck {
	deck := make(Deck, 0, TotalCards)
	id := 0
	for _, role := range Roles {
		for i := 0; i < CopiesPerRole; i++ {
			deck = append(deck, Card{ID: id, Role: role})
			id++
		}
	}
	return deck
}

// Shuffle permutes the deck in place with a Fisher-Yates shuffle.
func (d Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d), func(i, j int) { d[i], d[j] = d[j], d[i] })
}

// Draw removes and returns n cards from the top of the deck.
func (d *Deck) Draw(n int) ([]Card, error) {
	if len(*d) < n {
		return nil, ErrInsufficientCards
	}
	drawn := append([]Card(nil), (*d)[:n]...)
	*d = (*d)[n:]
	return drawn, nil
}

// Return appends cards back to the deck and reshuffles immediately so the
// next draw is fair. Returned cards always go back face down.
func (d *Deck) Return(cards []Card, rng *rand.Rand) {
	for _, c := range cards {
		c.Revealed = false
		*d = append(*d, c)
	}
	d.Shuffle(rng)
}
