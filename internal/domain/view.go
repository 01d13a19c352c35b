package domain

// SessionView is the player-specific projection of session state. Other
// players' hidden cards appear as placeholders and the central deck is
// exposed only as a count.
type SessionView struct {
	ID            string       `json:"id"`
	JoinCode      string       `json:"join_code"`
	Name          string       `json:"name"`
	Public        bool         `json:"public"`
	Capacity      int          `json:"capacity"`
	Phase         Phase        `json:"phase"`
	DeckCount     int          `json:"deck_count"`
	CurrentActor  string       `json:"current_actor,omitempty"`
	LeaderID      string       `json:"leader_id"`
	WinnerID      string       `json:"winner_id,omitempty"`
	Players       []PlayerView `json:"players"`
	Spectators    []string     `json:"spectators,omitempty"`
	Pending       *PendingView `json:"pending,omitempty"`
	Log           []LogEntry   `json:"log,omitempty"`
}

// PlayerView is one seat as seen by a particular viewer.
type PlayerView struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Coins       int        `json:"coins"`
	Influence   int        `json:"influence"`
	Active      bool       `json:"active"`
	Connected   bool       `json:"connected"`
	IsBot       bool       `json:"is_bot"`
	Cards       []CardView `json:"cards"`
}

// CardView hides the role of cards the viewer may not see. Card IDs are
// only exposed for the viewer's own hand.
type CardView struct {
	ID       int  `json:"id,omitempty"`
	Role     Role `json:"role,omitempty"`
	Revealed bool `json:"revealed"`
}

// PendingView is the observable slice of an in-flight resolution. Offered
// exchange cards are only present for the deciding player.
type PendingView struct {
	Kind        ResolutionKind `json:"kind"`
	Action      ActionType     `json:"action"`
	InitiatorID string         `json:"initiator_id"`
	TargetID    string         `json:"target_id,omitempty"`
	BlockerID   string         `json:"blocker_id,omitempty"`
	BlockRole   Role           `json:"block_role,omitempty"`
	Responded   []string       `json:"responded,omitempty"`
	Offered     []Card         `json:"offered,omitempty"`
	Deadline    int64          `json:"deadline"`
}

// VisibleState projects full session state into what viewerID is allowed to
// observe. Spectators and unknown viewers get the all-hidden projection.
func VisibleState(s *Session, viewerID string) SessionView {
	view := SessionView{
		ID:           s.ID,
		JoinCode:     s.JoinCode,
		Name:         s.Name,
		Public:       s.Public,
		Capacity:     s.Capacity,
		Phase:        s.Phase,
		DeckCount:    len(s.Deck),
		LeaderID:     s.LeaderID,
		WinnerID:     s.WinnerID,
		Spectators:   s.Spectators,
		Log:          s.Log,
	}
	if actor := s.CurrentActor(); actor != nil {
		view.CurrentActor = actor.UserID
	}

	for _, p := range s.Players {
		pv := PlayerView{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Coins:       p.Coins,
			Influence:   p.Influence(),
			Active:      p.Active,
			Connected:   p.Connected,
			IsBot:       p.IsBot,
			Cards:       make([]CardView, 0, len(p.Hand)),
		}
		own := p.UserID == viewerID
		for _, c := range p.Hand {
			switch {
			case own:
				pv.Cards = append(pv.Cards, CardView{ID: c.ID, Role: c.Role, Revealed: c.Revealed})
			case c.Revealed:
				pv.Cards = append(pv.Cards, CardView{Role: c.Role, Revealed: true})
			default:
				pv.Cards = append(pv.Cards, CardView{})
			}
		}
		view.Players = append(view.Players, pv)
	}

	if pr := s.Pending; pr != nil {
		pv := &PendingView{
			Kind:        pr.Kind,
			Action:      pr.Action,
			InitiatorID: pr.InitiatorID,
			TargetID:    pr.TargetID,
			BlockerID:   pr.BlockerID,
			BlockRole:   pr.BlockRole,
			Deadline:    pr.Deadline,
		}
		for id := range pr.Responses {
			pv.Responded = append(pv.Responded, id)
		}
		if pr.Kind == ResolutionExchangeSelect && pr.InitiatorID == viewerID {
			pv.Offered = pr.Offered
		}
		view.Pending = pv
	}

	return view
}
