package app

import (
	"fmt"

	"coup/internal/domain"
)

// ProposeAction validates and opens a new action for the current actor.
// Income and coup resolve immediately; everything else opens response
// collection with a deadline.
func (s *Service) ProposeAction(sess *domain.Session, actorID string, action domain.ActionType, targetID string, tick int64) ([]Event, error) {
	if sess.Phase != domain.PhaseInProgress {
		return nil, domain.ErrNotInProgress
	}
	if sess.Pending != nil {
		return nil, domain.ErrInvalidTransition
	}
	actor := sess.CurrentActor()
	if actor == nil || actor.UserID != actorID {
		return nil, domain.ErrNotYourTurn
	}

	spec, ok := action.Spec()
	if !ok {
		return nil, domain.ErrUnknownAction
	}
	if actor.Coins >= domain.MandatoryCoupThreshold && action != domain.ActionCoup {
		return nil, domain.ErrMustCoup
	}
	if actor.Coins < spec.Cost {
		return nil, domain.ErrInsufficientCoins
	}

	var target *domain.Player
	if spec.RequiresTarget {
		target = sess.PlayerByID(targetID)
		if target == nil || !target.Active || targetID == actorID {
			return nil, domain.ErrInvalidTarget
		}
	} else {
		targetID = ""
	}

	if spec.ResolvesImmediately() {
		return s.executeAction(sess, action, actorID, targetID, nil)
	}

	sess.Pending = &domain.PendingResolution{
		Kind:        domain.ResolutionAwaitingResponses,
		Generation:  s.nextGeneration(sess),
		Action:      action,
		InitiatorID: actorID,
		TargetID:    targetID,
		Responses:   make(map[string]domain.ResponseType),
		Deadline:    tick + s.timing.ResponseTicks,
	}

	events := []Event{{
		Kind: EventActionProposed,
		Payload: ActionProposedPayload{
			InitiatorID: actorID,
			Action:      action,
			TargetID:    targetID,
			Deadline:    sess.Pending.Deadline,
		},
	}}

	// Degenerate but possible after removals: nobody owes a response.
	if len(sess.EligibleResponders()) == 0 {
		exec, err := s.executePending(sess, tick)
		if err != nil {
			return nil, err
		}
		events = append(events, exec...)
	}
	return events, nil
}

// SubmitResponse records one pass/block/challenge answer toward the open
// resolution.
func (s *Service) SubmitResponse(sess *domain.Session, actorID string, response domain.ResponseType, blockRole domain.Role, tick int64) ([]Event, error) {
	if sess.Phase != domain.PhaseInProgress {
		return nil, domain.ErrNotInProgress
	}
	pr := sess.Pending
	if pr == nil {
		return nil, domain.ErrInvalidTransition
	}

	switch pr.Kind {
	case domain.ResolutionAwaitingResponses:
		return s.respondToAction(sess, actorID, response, blockRole, tick)
	case domain.ResolutionBlockAttempt:
		return s.respondToBlock(sess, actorID, response, tick)
	default:
		// A challenge already short-circuited collection; late responders
		// learn the action is settled.
		return nil, domain.ErrActionAlreadyResolved
	}
}

func (s *Service) respondToAction(sess *domain.Session, actorID string, response domain.ResponseType, blockRole domain.Role, tick int64) ([]Event, error) {
	pr := sess.Pending
	responder := sess.PlayerByID(actorID)
	if responder == nil || !responder.Active || actorID == pr.InitiatorID {
		return nil, domain.ErrNotAuthorized
	}
	if pr.HasResponded(actorID) {
		return nil, domain.ErrAlreadyResponded
	}
	spec, _ := pr.Action.Spec()

	switch response {
	case domain.ResponsePass:
		pr.Responses[actorID] = domain.ResponsePass
		events := []Event{{
			Kind:    EventResponseSubmitted,
			Payload: ResponseSubmittedPayload{UserID: actorID, Response: domain.ResponsePass},
		}}
		if sess.AllResponded() {
			exec, err := s.executePending(sess, tick)
			if err != nil {
				return nil, err
			}
			events = append(events, exec...)
		}
		return events, nil

	case domain.ResponseChallenge:
		if !spec.Challengeable() {
			return nil, domain.ErrInvalidTransition
		}
		pr.Responses[actorID] = domain.ResponseChallenge
		events := []Event{{
			Kind:    EventResponseSubmitted,
			Payload: ResponseSubmittedPayload{UserID: actorID, Response: domain.ResponseChallenge},
		}}
		resolved, err := s.resolveChallenge(sess, actorID, pr.InitiatorID, spec.ClaimRole, true, tick)
		if err != nil {
			return nil, err
		}
		return append(events, resolved...), nil

	case domain.ResponseBlock:
		if len(spec.BlockableBy) == 0 {
			return nil, domain.ErrInvalidTransition
		}
		if blockRole == "" && len(spec.BlockableBy) == 1 {
			blockRole = spec.BlockableBy[0]
		}
		if !spec.CanBlockWith(blockRole) {
			return nil, domain.ErrInvalidBlockRole
		}
		// The block opens its own response round with a fresh deadline.
		pr.Kind = domain.ResolutionBlockAttempt
		pr.Generation = s.nextGeneration(sess)
		pr.BlockerID = actorID
		pr.BlockRole = blockRole
		pr.Responses = make(map[string]domain.ResponseType)
		pr.Deadline = tick + s.timing.BlockTicks
		return []Event{{
			Kind: EventBlockDeclared,
			Payload: BlockDeclaredPayload{
				BlockerID: actorID,
				Action:    pr.Action,
				BlockRole: blockRole,
				Deadline:  pr.Deadline,
			},
		}}, nil
	}
	return nil, domain.ErrInvalidTransition
}

func (s *Service) respondToBlock(sess *domain.Session, actorID string, response domain.ResponseType, tick int64) ([]Event, error) {
	pr := sess.Pending
	responder := sess.PlayerByID(actorID)
	if responder == nil || !responder.Active || actorID == pr.BlockerID {
		return nil, domain.ErrNotAuthorized
	}
	if pr.HasResponded(actorID) {
		return nil, domain.ErrAlreadyResponded
	}

	switch response {
	case domain.ResponsePass:
		pr.Responses[actorID] = domain.ResponsePass
		events := []Event{{
			Kind:    EventResponseSubmitted,
			Payload: ResponseSubmittedPayload{UserID: actorID, Response: domain.ResponsePass},
		}}
		if sess.AllResponded() {
			accepted, err := s.acceptBlock(sess)
			if err != nil {
				return nil, err
			}
			events = append(events, accepted...)
		}
		return events, nil

	case domain.ResponseChallenge:
		pr.Responses[actorID] = domain.ResponseChallenge
		events := []Event{{
			Kind:    EventResponseSubmitted,
			Payload: ResponseSubmittedPayload{UserID: actorID, Response: domain.ResponseChallenge},
		}}
		resolved, err := s.resolveChallenge(sess, actorID, pr.BlockerID, pr.BlockRole, false, tick)
		if err != nil {
			return nil, err
		}
		return append(events, resolved...), nil
	}
	// A block cannot itself be blocked.
	return nil, domain.ErrInvalidTransition
}

// resolveChallenge settles a challenge against a role claim. claimantIsInitiator
// distinguishes an action challenge from a block challenge: when the claim
// holds up, the action respectively proceeds after a ReturnCard step, or is
// cancelled after one (the block stood).
func (s *Service) resolveChallenge(sess *domain.Session, challengerID, claimantID string, claimedRole domain.Role, claimantIsInitiator bool, tick int64) ([]Event, error) {
	pr := sess.Pending
	claimant := sess.PlayerByID(claimantID)
	if claimant == nil {
		return nil, domain.ErrPlayerNotFound
	}

	if claimant.HasHiddenRole(claimedRole) {
		// Claim was genuine: the challenger pays with one influence and the
		// claimant draws a replacement, then owes one card back to the deck.
		events := []Event{{
			Kind: EventChallengeResolved,
			Payload: ChallengeResolvedPayload{
				ChallengerID: challengerID,
				ClaimantID:   claimantID,
				ClaimedRole:  claimedRole,
				Action:       pr.Action,
				Upheld:       false,
			},
		}}
		lost, err := s.loseInfluence(sess, challengerID)
		if err != nil {
			return nil, err
		}
		events = append(events, lost...)

		if sess.Phase == domain.PhaseFinished {
			sess.Pending = nil
			return events, nil
		}

		drawn, err := sess.Deck.Draw(1)
		if err != nil {
			return nil, err
		}
		claimant.Hand = append(claimant.Hand, drawn...)

		pr.Kind = domain.ResolutionReturnCard
		pr.Generation = s.nextGeneration(sess)
		pr.ReturnerID = claimantID
		pr.ResumeAction = claimantIsInitiator
		pr.Responses = nil
		pr.Deadline = tick + s.timing.ReturnTicks
		return events, nil
	}

	// Bluff exposed: the claimant loses one influence.
	events := []Event{{
		Kind: EventChallengeResolved,
		Payload: ChallengeResolvedPayload{
			ChallengerID: challengerID,
			ClaimantID:   claimantID,
			ClaimedRole:  claimedRole,
			Action:       pr.Action,
			Upheld:       true,
		},
	}}
	lost, err := s.loseInfluence(sess, claimantID)
	if err != nil {
		return nil, err
	}
	events = append(events, lost...)

	if claimantIsInitiator {
		// The action was a bluff and is cancelled.
		s.appendLog(sess, pr.InitiatorID, string(pr.Action), pr.TargetID, "cancelled: challenge upheld")
		events = append(events, Event{
			Kind:    EventActionCancelled,
			Payload: ActionCancelledPayload{InitiatorID: pr.InitiatorID, Action: pr.Action, Reason: "challenge_upheld"},
		})
		sess.Pending = nil
		if sess.Phase != domain.PhaseFinished {
			advanced, err := s.advanceTurn(sess)
			if err != nil {
				return nil, err
			}
			events = append(events, advanced...)
		}
		return events, nil
	}

	// The block was a bluff; the original action goes through.
	action, initiatorID, targetID := pr.Action, pr.InitiatorID, pr.TargetID
	sess.Pending = nil
	if sess.Phase == domain.PhaseFinished {
		return events, nil
	}
	executed, err := s.executeAction(sess, action, initiatorID, targetID, &executeOpts{tick: tick})
	if err != nil {
		return nil, err
	}
	return append(events, executed...), nil
}

// acceptBlock settles a block that every responder passed on (or that timed
// out). The blocked action is cancelled; nothing is refunded because costs
// are only charged on execution.
func (s *Service) acceptBlock(sess *domain.Session) ([]Event, error) {
	pr := sess.Pending
	s.appendLog(sess, pr.InitiatorID, string(pr.Action), pr.TargetID,
		fmt.Sprintf("blocked by %s claiming %s", pr.BlockerID, pr.BlockRole))
	events := []Event{{
		Kind:    EventActionCancelled,
		Payload: ActionCancelledPayload{InitiatorID: pr.InitiatorID, Action: pr.Action, Reason: "blocked"},
	}}
	sess.Pending = nil
	advanced, err := s.advanceTurn(sess)
	if err != nil {
		return nil, err
	}
	return append(events, advanced...), nil
}

// executePending runs the awaiting action once every responder passed.
func (s *Service) executePending(sess *domain.Session, tick int64) ([]Event, error) {
	pr := sess.Pending
	action, initiatorID, targetID := pr.Action, pr.InitiatorID, pr.TargetID
	sess.Pending = nil
	return s.executeAction(sess, action, initiatorID, targetID, &executeOpts{tick: tick})
}

type executeOpts struct {
	tick int64
}

// executeAction applies an action's effect, logs it and advances the turn.
// Exchange is the exception: it opens an ExchangeSelect sub-resolution and
// leaves the turn with the initiator until the selection lands.
func (s *Service) executeAction(sess *domain.Session, action domain.ActionType, initiatorID, targetID string, opts *executeOpts) ([]Event, error) {
	spec, ok := action.Spec()
	if !ok {
		return nil, domain.ErrUnknownAction
	}
	initiator := sess.PlayerByID(initiatorID)
	if initiator == nil {
		return nil, domain.ErrPlayerNotFound
	}

	var events []Event
	appendExecuted := func() {
		s.appendLog(sess, initiatorID, string(action), targetID, "")
		events = append(events, Event{
			Kind:    EventActionExecuted,
			Payload: ActionExecutedPayload{InitiatorID: initiatorID, Action: action, TargetID: targetID},
		})
	}

	switch action {
	case domain.ActionIncome, domain.ActionForeignAid, domain.ActionTax:
		initiator.Coins += spec.Gain
		appendExecuted()

	case domain.ActionSteal:
		target := sess.PlayerByID(targetID)
		if target != nil && target.Active {
			amount := domain.StealAmount
			if target.Coins < amount {
				amount = target.Coins
			}
			target.Coins -= amount
			initiator.Coins += amount
		}
		appendExecuted()

	case domain.ActionCoup, domain.ActionAssassinate:
		// Cost policy: charged here, on execution, never at propose time.
		initiator.Coins -= spec.Cost
		appendExecuted()
		target := sess.PlayerByID(targetID)
		if target != nil && target.Active {
			lost, err := s.loseInfluence(sess, targetID)
			if err != nil {
				return nil, err
			}
			events = append(events, lost...)
		}

	case domain.ActionExchange:
		if opts == nil {
			return nil, domain.ErrInvalidTransition
		}
		drawn, err := sess.Deck.Draw(ExchangeDrawCount)
		if err != nil {
			return nil, err
		}
		offered := append(initiator.HiddenCards(), drawn...)
		sess.Pending = &domain.PendingResolution{
			Kind:        domain.ResolutionExchangeSelect,
			Generation:  s.nextGeneration(sess),
			Action:      domain.ActionExchange,
			InitiatorID: initiatorID,
			Offered:     offered,
			Deadline:    opts.tick + s.timing.ExchangeTicks,
		}
		// Drawn cards sit in the offer, not the hand, so pull the hidden
		// originals out of the hand until the selection completes.
		initiator.Hand = revealedOnly(initiator.Hand)
		events = append(events, Event{
			Kind: EventExchangeOffer,
			Payload: ExchangeOfferPayload{
				UserID:   initiatorID,
				Offered:  offered,
				Keep:     len(offered) - ExchangeDrawCount,
				Deadline: sess.Pending.Deadline,
			},
			Recipients: []string{initiatorID},
		})
		return events, nil

	default:
		return nil, domain.ErrUnknownAction
	}

	if sess.Phase != domain.PhaseFinished {
		advanced, err := s.advanceTurn(sess)
		if err != nil {
			return nil, err
		}
		events = append(events, advanced...)
	}
	return events, nil
}

// SubmitExchangeSelection completes an exchange: the initiator keeps exactly
// the pre-draw hidden count and the remainder returns to the deck.
func (s *Service) SubmitExchangeSelection(sess *domain.Session, actorID string, keptCardIDs []int, tick int64) ([]Event, error) {
	pr := sess.Pending
	if pr == nil || pr.Kind != domain.ResolutionExchangeSelect {
		return nil, domain.ErrInvalidTransition
	}
	if actorID != pr.InitiatorID {
		return nil, domain.ErrNotAuthorized
	}
	keep := len(pr.Offered) - ExchangeDrawCount
	if len(keptCardIDs) != keep {
		return nil, domain.ErrInvalidSelection
	}

	kept := make([]domain.Card, 0, keep)
	returned := make([]domain.Card, 0, ExchangeDrawCount)
	chosen := make(map[int]bool, keep)
	for _, id := range keptCardIDs {
		if chosen[id] {
			return nil, domain.ErrInvalidSelection
		}
		chosen[id] = true
	}
	for _, c := range pr.Offered {
		if chosen[c.ID] {
			kept = append(kept, c)
		} else {
			returned = append(returned, c)
		}
	}
	if len(kept) != keep {
		return nil, domain.ErrInvalidSelection
	}

	return s.finishExchange(sess, kept, returned)
}

func (s *Service) finishExchange(sess *domain.Session, kept, returned []domain.Card) ([]Event, error) {
	pr := sess.Pending
	initiator := sess.PlayerByID(pr.InitiatorID)
	initiator.Hand = append(initiator.Hand, kept...)
	sess.Deck.Return(returned, s.rng)

	s.appendLog(sess, pr.InitiatorID, string(domain.ActionExchange), "", "selection complete")
	events := []Event{{
		Kind:    EventExchangeCompleted,
		Payload: ExchangeCompletedPayload{UserID: pr.InitiatorID},
	}}
	sess.Pending = nil

	advanced, err := s.advanceTurn(sess)
	if err != nil {
		return nil, err
	}
	return append(events, advanced...), nil
}

// SubmitReturnCard completes the post-challenge replacement: one hidden card
// goes back to the deck, then the original action resumes if it survived.
func (s *Service) SubmitReturnCard(sess *domain.Session, actorID string, cardID int, tick int64) ([]Event, error) {
	pr := sess.Pending
	if pr == nil || pr.Kind != domain.ResolutionReturnCard {
		return nil, domain.ErrInvalidTransition
	}
	if actorID != pr.ReturnerID {
		return nil, domain.ErrNotAuthorized
	}
	returner := sess.PlayerByID(actorID)
	card, ok := returner.RemoveHiddenCard(cardID)
	if !ok {
		return nil, domain.ErrInvalidSelection
	}
	return s.finishReturn(sess, card, tick)
}

func (s *Service) finishReturn(sess *domain.Session, card domain.Card, tick int64) ([]Event, error) {
	pr := sess.Pending
	sess.Deck.Return([]domain.Card{card}, s.rng)

	events := []Event{{
		Kind:    EventCardReturned,
		Payload: CardReturnedPayload{UserID: pr.ReturnerID},
	}}

	action, initiatorID, targetID, resume := pr.Action, pr.InitiatorID, pr.TargetID, pr.ResumeAction
	sess.Pending = nil

	if resume {
		executed, err := s.executeAction(sess, action, initiatorID, targetID, &executeOpts{tick: tick})
		if err != nil {
			return nil, err
		}
		return append(events, executed...), nil
	}

	// The block stood; the original action stays cancelled.
	s.appendLog(sess, initiatorID, string(action), targetID, "cancelled: block stood")
	events = append(events, Event{
		Kind:    EventActionCancelled,
		Payload: ActionCancelledPayload{InitiatorID: initiatorID, Action: action, Reason: "blocked"},
	})
	advanced, err := s.advanceTurn(sess)
	if err != nil {
		return nil, err
	}
	return append(events, advanced...), nil
}

// loseInfluence flips one random hidden card for the player, handling
// elimination and game end.
func (s *Service) loseInfluence(sess *domain.Session, userID string) ([]Event, error) {
	player := sess.PlayerByID(userID)
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	card, ok := player.RevealRandomHidden(s.rng)
	if !ok {
		return nil, nil
	}

	events := []Event{{
		Kind: EventInfluenceLost,
		Payload: InfluenceLostPayload{
			UserID:        userID,
			RevealedRole:  card.Role,
			InfluenceLeft: player.Influence(),
		},
	}}

	if player.Influence() == 0 {
		player.Active = false
		s.appendLog(sess, userID, "eliminated", "", "")
		events = append(events, Event{Kind: EventPlayerEliminated, Payload: PlayerEliminatedPayload{UserID: userID}})
		events = append(events, s.checkGameEnd(sess)...)
	}
	return events, nil
}

// checkGameEnd finalizes the session when at most one active player remains.
func (s *Service) checkGameEnd(sess *domain.Session) []Event {
	if sess.Phase != domain.PhaseInProgress {
		return nil
	}
	active := sess.ActivePlayers()
	if len(active) > 1 {
		return nil
	}
	sess.Phase = domain.PhaseFinished
	sess.Pending = nil
	if len(active) == 1 {
		sess.WinnerID = active[0].UserID
	}
	s.appendLog(sess, sess.WinnerID, "game_ended", "", "")
	return []Event{{Kind: EventGameEnded, Payload: GameEndedPayload{WinnerID: sess.WinnerID}}}
}

// advanceTurn moves to the next active seat. A finished game never advances.
func (s *Service) advanceTurn(sess *domain.Session) ([]Event, error) {
	if sess.Phase != domain.PhaseInProgress {
		return nil, nil
	}
	next, err := domain.NextActiveSeat(sess, sess.CurrentSeat)
	if err != nil {
		return nil, err
	}
	sess.CurrentSeat = next
	return []Event{{
		Kind:    EventTurnChanged,
		Payload: TurnChangedPayload{ActorID: sess.Players[next].UserID},
	}}, nil
}

func revealedOnly(hand []domain.Card) []domain.Card {
	out := make([]domain.Card, 0, len(hand))
	for _, c := range hand {
		if c.Revealed {
			out = append(out, c)
		}
	}
	return out
}
