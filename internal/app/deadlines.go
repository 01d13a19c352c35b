package app

import "coup/internal/domain"

// HandleDeadline applies the documented fallback when a pending resolution's
// deadline fires: auto-pass for response collection, accept for a block,
// deterministic first-N keep for an exchange, arbitrary hidden card for a
// return. It never fails outward; a deadline for a superseded generation is
// a no-op. The returned bool reports whether anything happened.
func (s *Service) HandleDeadline(sess *domain.Session, generation uint64, tick int64) ([]Event, bool) {
	pr := sess.Pending
	if sess.Phase != domain.PhaseInProgress || pr == nil || pr.Generation != generation {
		return nil, false
	}

	switch pr.Kind {
	case domain.ResolutionAwaitingResponses:
		// Non-responders are treated as having passed.
		for _, id := range sess.EligibleResponders() {
			if !pr.HasResponded(id) {
				pr.Responses[id] = domain.ResponsePass
			}
		}
		events, err := s.executePending(sess, tick)
		if err != nil {
			return s.abandonPending(sess, err), true
		}
		return events, true

	case domain.ResolutionBlockAttempt:
		events, err := s.acceptBlock(sess)
		if err != nil {
			return s.abandonPending(sess, err), true
		}
		return events, true

	case domain.ResolutionExchangeSelect:
		// Deterministic fallback: keep the first N offered cards.
		keep := len(pr.Offered) - ExchangeDrawCount
		if keep < 0 {
			keep = 0
		}
		kept := append([]domain.Card(nil), pr.Offered[:keep]...)
		returned := append([]domain.Card(nil), pr.Offered[keep:]...)
		events, err := s.finishExchange(sess, kept, returned)
		if err != nil {
			return s.abandonPending(sess, err), true
		}
		return events, true

	case domain.ResolutionReturnCard:
		returner := sess.PlayerByID(pr.ReturnerID)
		if returner != nil {
			hidden := returner.HiddenCards()
			if len(hidden) > 0 {
				card, _ := returner.RemoveHiddenCard(hidden[0].ID)
				events, err := s.finishReturn(sess, card, tick)
				if err != nil {
					return s.abandonPending(sess, err), true
				}
				return events, true
			}
		}
		return s.abandonPending(sess, domain.ErrInvalidTransition), true
	}
	return nil, false
}

// abandonPending is the last-resort recovery when an auto-resolution cannot
// complete: the action is dropped and the turn moves on, so the session
// never sticks.
func (s *Service) abandonPending(sess *domain.Session, cause error) []Event {
	pr := sess.Pending
	events := []Event{}
	if pr != nil {
		s.appendLog(sess, pr.InitiatorID, string(pr.Action), pr.TargetID, "abandoned: "+cause.Error())
		events = append(events, Event{
			Kind:    EventActionCancelled,
			Payload: ActionCancelledPayload{InitiatorID: pr.InitiatorID, Action: pr.Action, Reason: "abandoned"},
		})
		if pr.Kind == domain.ResolutionExchangeSelect {
			sess.Deck.Return(pr.Offered, s.rng)
		}
	}
	sess.Pending = nil
	if advanced, err := s.advanceTurn(sess); err == nil {
		events = append(events, advanced...)
	}
	return events
}
