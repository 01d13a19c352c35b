package bot

import (
	"math/rand"

	"coup/internal/domain"
)

// RandomBot plays a uniformly random legal move. It never bluffs, never
// challenges and keeps whatever cards come first in an exchange, which keeps
// tables moving without pretending to be competitive.
type RandomBot struct {
	rng *rand.Rand
}

func NewRandomBot(rng *rand.Rand) *RandomBot {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &RandomBot{rng: rng}
}

func (b *RandomBot) Decide(sess *domain.Session, player *domain.Player) (Decision, error) {
	if sess.Phase != domain.PhaseInProgress || !player.Active {
		return Decision{Kind: DecideNothing}, nil
	}

	if pr := sess.Pending; pr != nil {
		switch pr.Kind {
		case domain.ResolutionExchangeSelect:
			if pr.InitiatorID == player.UserID {
				return b.decideExchange(pr), nil
			}
		case domain.ResolutionReturnCard:
			if pr.ReturnerID == player.UserID {
				return b.decideReturn(player), nil
			}
		case domain.ResolutionAwaitingResponses, domain.ResolutionBlockAttempt:
			if b.owesResponse(sess, player, pr) {
				return Decision{Kind: DecideResponse, Response: domain.ResponsePass}, nil
			}
		}
		return Decision{Kind: DecideNothing}, nil
	}

	if actor := sess.CurrentActor(); actor == nil || actor.UserID != player.UserID {
		return Decision{Kind: DecideNothing}, nil
	}
	return b.decideAction(sess, player), nil
}

func (b *RandomBot) decideAction(sess *domain.Session, player *domain.Player) Decision {
	target := b.pickTarget(sess, player)

	if player.Coins >= domain.MandatoryCoupThreshold {
		return Decision{Kind: DecideAction, Action: domain.ActionCoup, TargetID: target}
	}

	candidates := []domain.ActionType{domain.ActionIncome, domain.ActionForeignAid}
	if player.HasHiddenRole(domain.RoleDuke) {
		candidates = append(candidates, domain.ActionTax)
	}
	if player.HasHiddenRole(domain.RoleCaptain) && target != "" {
		candidates = append(candidates, domain.ActionSteal)
	}
	if player.HasHiddenRole(domain.RoleAmbassador) {
		candidates = append(candidates, domain.ActionExchange)
	}
	if player.HasHiddenRole(domain.RoleAssassin) && player.Coins >= domain.AssassinateCost && target != "" {
		candidates = append(candidates, domain.ActionAssassinate)
	}
	if player.Coins >= domain.CoupCost && target != "" {
		candidates = append(candidates, domain.ActionCoup)
	}

	action := candidates[b.rng.Intn(len(candidates))]
	spec, _ := action.Spec()
	if !spec.RequiresTarget {
		target = ""
	}
	return Decision{Kind: DecideAction, Action: action, TargetID: target}
}

// exchangeDrawCount mirrors the engine's draw size for exchange offers.
const exchangeDrawCount = 2

func (b *RandomBot) decideExchange(pr *domain.PendingResolution) Decision {
	keep := len(pr.Offered) - exchangeDrawCount
	if keep < 0 {
		keep = 0
	}
	ids := make([]int, 0, keep)
	for _, c := range pr.Offered[:keep] {
		ids = append(ids, c.ID)
	}
	return Decision{Kind: DecideExchange, KeptCardIDs: ids}
}

func (b *RandomBot) decideReturn(player *domain.Player) Decision {
	hidden := player.HiddenCards()
	if len(hidden) == 0 {
		return Decision{Kind: DecideNothing}
	}
	return Decision{Kind: DecideReturn, ReturnCardID: hidden[b.rng.Intn(len(hidden))].ID}
}

func (b *RandomBot) owesResponse(sess *domain.Session, player *domain.Player, pr *domain.PendingResolution) bool {
	if pr.HasResponded(player.UserID) {
		return false
	}
	for _, id := range sess.EligibleResponders() {
		if id == player.UserID {
			return true
		}
	}
	return false
}

func (b *RandomBot) pickTarget(sess *domain.Session, player *domain.Player) string {
	var ids []string
	for _, p := range sess.ActivePlayers() {
		if p.UserID != player.UserID {
			ids = append(ids, p.UserID)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	return ids[b.rng.Intn(len(ids))]
}
