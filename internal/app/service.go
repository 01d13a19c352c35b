package app

import (
	"math/rand"
	"time"

	"coup/internal/domain"
	"coup/internal/ports"
)

// Timing holds every engine deadline, expressed in match-loop ticks.
type Timing struct {
	ResponseTicks int64
	BlockTicks    int64
	ExchangeTicks int64
	ReturnTicks   int64
	// GraceTicks is the disconnect grace window before a seat forfeits.
	GraceTicks int64
	// EmptyTicks is the window a session with no connected humans is kept
	// alive to allow a late rejoin.
	EmptyTicks int64
}

// Service contains the Coup session engine use-cases. All methods operate
// on a *domain.Session owned by a single match loop; the service itself
// holds no per-session state.
type Service struct {
	rng    *rand.Rand
	clock  ports.Clock
	timing Timing
}

// NewService constructs a Service. rng may be nil for a time-seeded
// default, clock may be nil for the system clock.
func NewService(rng *rand.Rand, clock ports.Clock, timing Timing) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Service{rng: rng, clock: clock, timing: timing}
}

// AddPlayer seats a new player in the lobby.
func (s *Service) AddPlayer(sess *domain.Session, userID, displayName string, isBot bool) ([]Event, error) {
	if sess.Phase != domain.PhaseLobby {
		return nil, domain.ErrNotInLobby
	}
	if sess.PlayerByID(userID) != nil {
		return nil, nil // rejoin handled by MarkConnected
	}
	if sess.OpenSeats() <= 0 {
		return nil, domain.ErrSessionFull
	}

	player := &domain.Player{
		UserID:      userID,
		DisplayName: displayName,
		Connected:   true, // joiners are connected by definition; bots always are
		IsBot:       isBot,
	}
	sess.Players = append(sess.Players, player)

	leader := false
	if sess.LeaderID == "" && !isBot {
		sess.LeaderID = userID
		leader = true
	}
	sess.EmptyDeadline = 0

	return []Event{{
		Kind: EventPlayerJoined,
		Payload: PlayerJoinedPayload{
			UserID:      userID,
			DisplayName: displayName,
			Seat:        len(sess.Players) - 1,
			IsBot:       isBot,
			Leader:      leader,
		},
	}}, nil
}

// RemoveLobbyPlayer drops a player from a session that has not started.
// Seats are only stable once a game begins, so lobby removal is a plain
// delete rather than a forfeit.
func (s *Service) RemoveLobbyPlayer(sess *domain.Session, userID string) ([]Event, error) {
	if sess.Phase != domain.PhaseLobby {
		return nil, domain.ErrNotInLobby
	}
	seat := sess.SeatOf(userID)
	if seat < 0 {
		return nil, domain.ErrPlayerNotFound
	}
	sess.Players = append(sess.Players[:seat], sess.Players[seat+1:]...)

	events := []Event{{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{UserID: userID}}}
	if sess.LeaderID == userID {
		sess.LeaderID = ""
		for _, p := range sess.Players {
			if !p.IsBot {
				sess.LeaderID = p.UserID
				break
			}
		}
		if sess.LeaderID != "" {
			events = append(events, Event{Kind: EventLeaderChanged, Payload: LeaderChangedPayload{LeaderID: sess.LeaderID}})
		}
	}
	return events, nil
}

// StartGame shuffles, deals and opens play. Only the leader may start, from
// the lobby or from a finished game (restart).
func (s *Service) StartGame(sess *domain.Session, actorID string, tick int64) ([]Event, error) {
	if sess.Phase == domain.PhaseInProgress {
		return nil, domain.ErrInvalidTransition
	}
	if actorID != sess.LeaderID {
		return nil, domain.ErrNotLeader
	}

	// A seat forfeited to the disconnect grace stays gone: redealing it
	// would park the turn on a player no timer watches. Players still
	// inside their grace window keep their seat and their armed deadline.
	seated := func(p *domain.Player) bool {
		return p.Connected || p.GraceDeadline != 0
	}
	remaining := 0
	for _, p := range sess.Players {
		if seated(p) {
			remaining++
		}
	}
	if remaining < MinPlayersToStartGame {
		return nil, domain.ErrTooFewPlayers
	}

	events := make([]Event, 0, len(sess.Players)+2)
	kept := sess.Players[:0]
	for _, p := range sess.Players {
		if !seated(p) {
			events = append(events, Event{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{UserID: p.UserID}})
			continue
		}
		kept = append(kept, p)
	}
	sess.Players = kept

	// Reclaim every card: a restart rebuilds the full deck.
	deck := domain.NewDeck()
	deck.Shuffle(s.rng)
	sess.Deck = deck
	sess.Pending = nil
	sess.WinnerID = ""
	sess.Log = nil
	for _, p := range sess.Players {
		hand, err := sess.Deck.Draw(StartingHandSize)
		if err != nil {
			return nil, err
		}
		p.Hand = hand
		p.Coins = StartingCoins
		p.Active = true

		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{UserID: p.UserID, Hand: hand},
			Recipients: []string{p.UserID},
		})
	}

	sess.Phase = domain.PhaseInProgress
	sess.CurrentSeat = s.rng.Intn(len(sess.Players))
	first := sess.Players[sess.CurrentSeat]

	s.appendLog(sess, actorID, "start_game", "", "")

	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			FirstActorID: first.UserID,
			DeckCount:    len(sess.Deck),
		},
	})
	return events, nil
}

func (s *Service) appendLog(sess *domain.Session, actorID, action, targetID, note string) {
	sess.Log = append(sess.Log, domain.LogEntry{
		At:       s.clock.Now(),
		ActorID:  actorID,
		Action:   action,
		TargetID: targetID,
		Note:     note,
	})
}

// nextGeneration stamps a fresh pending resolution.
func (s *Service) nextGeneration(sess *domain.Session) uint64 {
	sess.ResolutionSeq++
	return sess.ResolutionSeq
}
