package bot

import (
	"math/rand"
	"testing"

	"coup/internal/domain"
)

func testSession() *domain.Session {
	deck := domain.NewDeck()
	p1 := &domain.Player{UserID: "b1", IsBot: true, Connected: true, Active: true, Coins: 2}
	p2 := &domain.Player{UserID: "u2", Connected: true, Active: true, Coins: 2}
	p1.Hand, _ = deck.Draw(2)
	p2.Hand, _ = deck.Draw(2)
	return &domain.Session{
		ID:      "s1",
		Phase:   domain.PhaseInProgress,
		Players: []*domain.Player{p1, p2},
		Deck:    deck,
	}
}

func TestRandomBotProposesLegalAction(t *testing.T) {
	sess := testSession()
	b := NewRandomBot(rand.New(rand.NewSource(1)))

	for i := 0; i < 50; i++ {
		d, err := b.Decide(sess, sess.Players[0])
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		if d.Kind != DecideAction {
			t.Fatalf("kind = %v, want action", d.Kind)
		}
		spec, ok := d.Action.Spec()
		if !ok {
			t.Fatalf("unknown action %s", d.Action)
		}
		if spec.Cost > sess.Players[0].Coins {
			t.Fatalf("chose unaffordable action %s", d.Action)
		}
		if spec.RequiresTarget && d.TargetID != "u2" {
			t.Fatalf("action %s needs a target, got %q", d.Action, d.TargetID)
		}
	}
}

func TestRandomBotCoupsAtThreshold(t *testing.T) {
	sess := testSession()
	sess.Players[0].Coins = domain.MandatoryCoupThreshold
	b := NewRandomBot(rand.New(rand.NewSource(2)))

	d, err := b.Decide(sess, sess.Players[0])
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Action != domain.ActionCoup {
		t.Fatalf("action = %s, want coup", d.Action)
	}
}

func TestRandomBotPassesWhenOwingResponse(t *testing.T) {
	sess := testSession()
	sess.CurrentSeat = 1
	sess.Pending = &domain.PendingResolution{
		Kind:        domain.ResolutionAwaitingResponses,
		Action:      domain.ActionTax,
		InitiatorID: "u2",
		Responses:   map[string]domain.ResponseType{},
	}
	b := NewRandomBot(rand.New(rand.NewSource(3)))

	d, err := b.Decide(sess, sess.Players[0])
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Kind != DecideResponse || d.Response != domain.ResponsePass {
		t.Fatalf("decision = %+v, want pass", d)
	}
}

func TestRandomBotStaysQuietWhenNotInvolved(t *testing.T) {
	sess := testSession()
	sess.CurrentSeat = 1
	b := NewRandomBot(rand.New(rand.NewSource(4)))

	d, err := b.Decide(sess, sess.Players[0])
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Kind != DecideNothing {
		t.Fatalf("decision = %+v, want nothing", d)
	}
}

func TestRandomBotAnswersExchangeAndReturn(t *testing.T) {
	sess := testSession()
	drawn, _ := sess.Deck.Draw(2)
	offered := append(sess.Players[0].HiddenCards(), drawn...)
	sess.Pending = &domain.PendingResolution{
		Kind:        domain.ResolutionExchangeSelect,
		Action:      domain.ActionExchange,
		InitiatorID: "b1",
		Offered:     offered,
	}
	b := NewRandomBot(rand.New(rand.NewSource(5)))

	d, err := b.Decide(sess, sess.Players[0])
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Kind != DecideExchange || len(d.KeptCardIDs) != 2 {
		t.Fatalf("decision = %+v, want 2 kept cards", d)
	}

	sess.Pending = &domain.PendingResolution{
		Kind:       domain.ResolutionReturnCard,
		Action:     domain.ActionTax,
		ReturnerID: "b1",
	}
	d, err = b.Decide(sess, sess.Players[0])
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Kind != DecideReturn {
		t.Fatalf("decision = %+v, want return", d)
	}
	if sess.Players[0].CardByID(d.ReturnCardID) < 0 {
		t.Fatalf("returned card %d not in hand", d.ReturnCardID)
	}
}
