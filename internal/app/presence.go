package app

import "coup/internal/domain"

// MarkConnected records a (re)connection. Idempotent: reconnecting an
// already-connected player is a success with no events.
func (s *Service) MarkConnected(sess *domain.Session, userID string, tick int64) ([]Event, error) {
	player := sess.PlayerByID(userID)
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	sess.EmptyDeadline = 0
	if player.Connected {
		return nil, nil
	}
	player.Connected = true
	player.GraceDeadline = 0
	return []Event{{
		Kind:    EventPlayerReconnected,
		Payload: PlayerPresencePayload{UserID: userID},
	}}, nil
}

// MarkDisconnected starts the grace window for an in-game player. Lobby
// players simply leave: their seat is not yet fixed.
func (s *Service) MarkDisconnected(sess *domain.Session, userID string, tick int64) ([]Event, error) {
	player := sess.PlayerByID(userID)
	if player == nil {
		return nil, domain.ErrPlayerNotFound
	}
	if sess.Phase == domain.PhaseLobby {
		return s.RemoveLobbyPlayer(sess, userID)
	}
	if !player.Connected {
		return nil, nil
	}
	player.Connected = false
	player.GraceDeadline = tick + s.timing.GraceTicks

	events := []Event{{
		Kind:    EventPlayerDisconnected,
		Payload: PlayerPresencePayload{UserID: userID, GraceDeadline: player.GraceDeadline},
	}}
	if sess.ConnectedHumans() == 0 {
		sess.EmptyDeadline = tick + s.timing.EmptyTicks
	}
	return events, nil
}

// HandleGraceExpiry forfeits a player whose disconnect grace elapsed. Any
// decision they owed is auto-settled so the session never stalls: an owned
// resolution is cancelled outright, an owed response becomes an implicit
// pass. Returns false when nothing was due.
func (s *Service) HandleGraceExpiry(sess *domain.Session, userID string, tick int64) ([]Event, bool) {
	player := sess.PlayerByID(userID)
	if player == nil || player.Connected || player.GraceDeadline == 0 || tick < player.GraceDeadline {
		return nil, false
	}
	player.GraceDeadline = 0

	events := []Event{{
		Kind:    EventPlayerRemoved,
		Payload: PlayerRemovedPayload{UserID: userID, Reason: "disconnect_grace_elapsed"},
	}}
	s.appendLog(sess, userID, "removed", "", "disconnect grace elapsed")

	wasActive := player.Active
	wasCurrent := sess.CurrentActor() == player
	player.Active = false
	player.RevealAll()

	if pr := sess.Pending; pr != nil && wasActive {
		switch {
		case pr.Owner() == userID || pr.InitiatorID == userID:
			// Their decision (or their action) dies with the seat.
			events = append(events, s.abandonPending(sess, domain.ErrPlayerNotFound)...)
		case pr.BlockerID == userID && pr.Kind == domain.ResolutionBlockAttempt:
			// Block abandoned: the original action goes through.
			action, initiatorID, targetID := pr.Action, pr.InitiatorID, pr.TargetID
			sess.Pending = nil
			executed, err := s.executeAction(sess, action, initiatorID, targetID, &executeOpts{tick: tick})
			if err != nil {
				events = append(events, s.abandonPending(sess, err)...)
			} else {
				events = append(events, executed...)
			}
		case !pr.HasResponded(userID) && (pr.Kind == domain.ResolutionAwaitingResponses || pr.Kind == domain.ResolutionBlockAttempt):
			// Implicit pass for anything they still owed.
			pr.Responses[userID] = domain.ResponsePass
			if sess.AllResponded() {
				var resolved []Event
				var err error
				if pr.Kind == domain.ResolutionAwaitingResponses {
					resolved, err = s.executePending(sess, tick)
				} else {
					resolved, err = s.acceptBlock(sess)
				}
				if err != nil {
					resolved = s.abandonPending(sess, err)
				}
				events = append(events, resolved...)
			}
		}
	}

	events = append(events, s.checkGameEnd(sess)...)

	// A removed current actor with nothing pending would stall the turn.
	if sess.Phase == domain.PhaseInProgress && wasCurrent && sess.Pending == nil && !sess.CurrentActor().Active {
		if advanced, err := s.advanceTurn(sess); err == nil {
			events = append(events, advanced...)
		}
	}

	events = append(events, s.transferLeadership(sess, userID, tick)...)
	return events, true
}

// transferLeadership promotes the next connected human when the leader's
// seat is lost; with none left, the empty-session deletion window arms.
func (s *Service) transferLeadership(sess *domain.Session, departedID string, tick int64) []Event {
	if sess.LeaderID != departedID {
		return nil
	}
	for _, p := range sess.Players {
		if p.Connected && !p.IsBot && p.UserID != departedID {
			sess.LeaderID = p.UserID
			return []Event{{Kind: EventLeaderChanged, Payload: LeaderChangedPayload{LeaderID: p.UserID}}}
		}
	}
	sess.LeaderID = ""
	if sess.EmptyDeadline == 0 {
		sess.EmptyDeadline = tick + s.timing.EmptyTicks
	}
	return nil
}

// ShouldDelete reports whether the empty-session grace elapsed with no
// connected humans. A join or reconnect disarms the window.
func (s *Service) ShouldDelete(sess *domain.Session, tick int64) bool {
	return sess.EmptyDeadline != 0 && tick >= sess.EmptyDeadline && sess.ConnectedHumans() == 0
}
