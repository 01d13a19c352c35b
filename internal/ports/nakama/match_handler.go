package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"coup/internal/app"
	"coup/internal/bot"
	"coup/internal/config"
	"coup/internal/domain"
	"coup/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// matchTickRate is ticks per second. All engine deadlines are expressed in
// ticks, so config windows in seconds convert 1:1.
const matchTickRate = 1

// MatchState holds the authoritative runtime state for one Coup table.
type MatchState struct {
	Session *domain.Session
	// Version is the storage CAS token from the last successful save.
	Version   string
	Presences map[string]runtime.Presence
	App       *app.Service
	Store     ports.SessionStore

	BotsEnabled      bool
	BotActDelay      int64
	BotAutoFillDelay int64
	// BotWaitUntil is the tick at which the next queued bot decision fires.
	BotWaitUntil int64
	// SoloHumanSince tracks when a lone human started waiting for opponents.
	SoloHumanSince int64
	Brains         map[string]bot.Brain

	// Dirty marks unsaved session mutations.
	Dirty bool
	// LastLabel avoids redundant label updates.
	LastLabel string
}

type matchHandler struct{}

func newMatchHandler() *matchHandler { return &matchHandler{} }

func generateJoinCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:6]
}

func timingFromConfig(cfg *config.GameConfig) app.Timing {
	return app.Timing{
		ResponseTicks: int64(cfg.ResponseWindowSeconds) * matchTickRate,
		BlockTicks:    int64(cfg.BlockWindowSeconds) * matchTickRate,
		ExchangeTicks: int64(cfg.ExchangeWindowSeconds) * matchTickRate,
		ReturnTicks:   int64(cfg.ReturnWindowSeconds) * matchTickRate,
		GraceTicks:    int64(cfg.DisconnectGraceSeconds) * matchTickRate,
		EmptyTicks:    int64(cfg.EmptySessionGraceSeconds) * matchTickRate,
	}
}

func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: could not load game config, using defaults: %v", err)
	}
	cfg := config.GetGameConfig()

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	public := true
	if v, ok := params["public"].(bool); ok {
		public = v
	}
	name, _ := params["name"].(string)
	capacity := domain.MaxPlayers
	if v, ok := params["capacity"].(float64); ok && int(v) >= domain.MinPlayers && int(v) <= domain.MaxPlayers {
		capacity = int(v)
	}

	sess := &domain.Session{
		ID:       matchID,
		JoinCode: generateJoinCode(),
		Name:     name,
		Public:   public,
		Capacity: capacity,
		Phase:    domain.PhaseLobby,
	}

	state := &MatchState{
		Session:          sess,
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(nil, nil, timingFromConfig(cfg)),
		Store:            NewNakamaSessionStore(nk),
		BotActDelay:      int64(cfg.BotActDelaySeconds) * matchTickRate,
		BotAutoFillDelay: int64(cfg.BotAutoFillDelaySeconds) * matchTickRate,
		Brains:           make(map[string]bot.Brain),
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if v, ok := env["coup_bots_enabled"]; ok {
		state.BotsEnabled = v == "true"
	}

	labelBytes, err := json.Marshal(domain.ComputeLabel(sess))
	if err != nil {
		logger.Error("MatchInit: failed to marshal label: %v", err)
		return nil, 0, ""
	}
	state.LastLabel = string(labelBytes)

	if version, err := state.Store.Save(ctx, sess, ""); err != nil {
		logger.Warn("MatchInit: initial session save failed: %v", err)
	} else {
		state.Version = version
	}

	return state, matchTickRate, state.LastLabel
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	sess := matchState.Session

	if metadata["spectator"] == "true" {
		return matchState, true, ""
	}
	// Reconnects always pass; the seat is already theirs.
	if sess.PlayerByID(presence.GetUserId()) != nil {
		return matchState, true, ""
	}
	if sess.Phase != domain.PhaseLobby {
		return matchState, false, "game in progress"
	}
	if sess.OpenSeats() <= 0 && !mh.hasReplaceableBot(sess) {
		return matchState, false, "match full"
	}
	return matchState, true, ""
}

func (mh *matchHandler) hasReplaceableBot(sess *domain.Session) bool {
	if sess.Phase != domain.PhaseLobby {
		return false
	}
	for _, p := range sess.Players {
		if p.IsBot {
			return true
		}
	}
	return false
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	sess := matchState.Session

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		var events []app.Event
		var err error
		switch {
		case sess.PlayerByID(userID) != nil:
			events, err = matchState.App.MarkConnected(sess, userID, tick)
		case sess.OpenSeats() <= 0 && mh.hasReplaceableBot(sess):
			mh.evictOneBot(matchState, logger)
			events, err = matchState.App.AddPlayer(sess, userID, p.GetUsername(), false)
		case sess.Phase == domain.PhaseLobby:
			events, err = matchState.App.AddPlayer(sess, userID, p.GetUsername(), false)
		default:
			// Spectator: watches with the public view.
			if !containsString(sess.Spectators, userID) {
				sess.Spectators = append(sess.Spectators, userID)
			}
		}
		if err != nil {
			logger.Warn("MatchJoin: user %s not seated: %v", userID, err)
			continue
		}
		matchState.Dirty = true
		for _, ev := range events {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
		mh.sendSnapshot(matchState, dispatcher, logger, userID)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.persist(ctx, matchState, logger)
	return matchState
}

func (mh *matchHandler) evictOneBot(state *MatchState, logger runtime.Logger) {
	sess := state.Session
	for _, p := range sess.Players {
		if p.IsBot {
			botID := p.UserID
			if _, err := state.App.RemoveLobbyPlayer(sess, botID); err != nil {
				logger.Warn("evictOneBot: failed to remove bot %s: %v", botID, err)
				return
			}
			delete(state.Brains, botID)
			logger.Info("evictOneBot: replaced bot %s with a human", botID)
			return
		}
	}
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}
	sess := matchState.Session

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		if containsString(sess.Spectators, userID) {
			sess.Spectators = removeString(sess.Spectators, userID)
			matchState.Dirty = true
			continue
		}
		if sess.PlayerByID(userID) == nil {
			continue
		}
		events, err := matchState.App.MarkDisconnected(sess, userID, tick)
		if err != nil {
			logger.Warn("MatchLeave: user %s: %v", userID, err)
			continue
		}
		matchState.Dirty = true
		for _, ev := range events {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.persist(ctx, matchState, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	sess := matchState.Session

	for _, msg := range messages {
		mh.handleMessage(matchState, dispatcher, logger, msg, tick)
	}

	// Pending resolution deadline.
	if pr := sess.Pending; pr != nil && tick >= pr.Deadline {
		if events, fired := matchState.App.HandleDeadline(sess, pr.Generation, tick); fired {
			matchState.Dirty = true
			for _, ev := range events {
				mh.broadcastEvent(matchState, dispatcher, logger, ev)
			}
		}
	}

	// Disconnect grace expiries.
	for _, p := range sess.Players {
		if p.Connected || p.GraceDeadline == 0 {
			continue
		}
		if events, fired := matchState.App.HandleGraceExpiry(sess, p.UserID, tick); fired {
			matchState.Dirty = true
			for _, ev := range events {
				mh.broadcastEvent(matchState, dispatcher, logger, ev)
			}
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(matchState, dispatcher, logger, tick)
	}

	if matchState.App.ShouldDelete(sess, tick) {
		logger.Info("MatchLoop: deleting abandoned session %s", sess.ID)
		if err := matchState.Store.Delete(ctx, sess.ID); err != nil {
			logger.Warn("MatchLoop: session delete failed: %v", err)
		}
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.persist(ctx, matchState, logger)
	return matchState
}

// Client message payloads. The wire format is plain JSON keyed by opcode.
type proposeActionRequest struct {
	Action   domain.ActionType `json:"action"`
	TargetID string            `json:"target_id,omitempty"`
}

type submitResponseRequest struct {
	Response  domain.ResponseType `json:"response"`
	BlockRole domain.Role         `json:"block_role,omitempty"`
}

type exchangeSelectRequest struct {
	KeptCardIDs []int `json:"kept_card_ids"`
}

type returnCardRequest struct {
	CardID int `json:"card_id"`
}

func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, tick int64) {
	sess := state.Session
	senderID := msg.GetUserId()

	var events []app.Event
	var err error

	switch msg.GetOpCode() {
	case OpStartGame:
		events, err = state.App.StartGame(sess, senderID, tick)

	case OpProposeAction:
		var req proposeActionRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = state.App.ProposeAction(sess, senderID, req.Action, req.TargetID, tick)
		}

	case OpSubmitResponse:
		var req submitResponseRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = state.App.SubmitResponse(sess, senderID, req.Response, req.BlockRole, tick)
		}

	case OpExchangeSelect:
		var req exchangeSelectRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = state.App.SubmitExchangeSelection(sess, senderID, req.KeptCardIDs, tick)
		}

	case OpReturnCard:
		var req returnCardRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = state.App.SubmitReturnCard(sess, senderID, req.CardID, tick)
		}

	case OpLeaveLobby:
		events, err = state.App.RemoveLobbyPlayer(sess, senderID)

	default:
		logger.Warn("handleMessage: unknown opcode %d from %s", msg.GetOpCode(), senderID)
		return
	}

	if err != nil {
		logger.Debug("handleMessage: op %d from %s rejected: %v", msg.GetOpCode(), senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	if len(events) > 0 {
		state.Dirty = true
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) processBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, tick int64) {
	sess := state.Session

	// Auto-fill: a lone human waiting in the lobby gets a bot opponent.
	if sess.Phase == domain.PhaseLobby && sess.ConnectedHumans() == 1 && len(sess.Players) < domain.MinPlayers {
		if state.SoloHumanSince == 0 {
			state.SoloHumanSince = tick
		}
		if tick-state.SoloHumanSince >= state.BotAutoFillDelay {
			mh.addBot(state, dispatcher, logger, len(sess.Players))
			state.SoloHumanSince = 0
		}
	} else {
		state.SoloHumanSince = 0
	}

	// One bot decision per delay window keeps the pacing human-ish.
	for _, p := range sess.Players {
		if !p.IsBot || !p.Active {
			continue
		}
		brain, ok := state.Brains[p.UserID]
		if !ok {
			continue
		}
		decision, err := brain.Decide(sess, p)
		if err != nil {
			logger.Error("processBots: bot %s decide failed: %v", p.UserID, err)
			continue
		}
		if decision.Kind == bot.DecideNothing {
			continue
		}
		if state.BotWaitUntil == 0 {
			state.BotWaitUntil = tick + state.BotActDelay
			return
		}
		if tick < state.BotWaitUntil {
			return
		}
		state.BotWaitUntil = 0
		mh.applyBotDecision(state, dispatcher, logger, p.UserID, decision, tick)
		return
	}
	state.BotWaitUntil = 0
}

func (mh *matchHandler) addBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, index int) {
	identity := bot.GetBotIdentity(index)
	brain, err := bot.NewBrain(bot.BotLevelRandom, nil)
	if err != nil {
		logger.Error("addBot: %v", err)
		return
	}

	events, err := state.App.AddPlayer(state.Session, identity.UserID, identity.DisplayName, true)
	if err != nil {
		logger.Warn("addBot: could not seat bot %s: %v", identity.UserID, err)
		return
	}
	state.Brains[identity.UserID] = brain
	state.Dirty = true
	logger.Info("addBot: seated bot %s (%s)", identity.DisplayName, identity.UserID)
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) applyBotDecision(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, botID string, decision bot.Decision, tick int64) {
	sess := state.Session

	var events []app.Event
	var err error
	switch decision.Kind {
	case bot.DecideAction:
		events, err = state.App.ProposeAction(sess, botID, decision.Action, decision.TargetID, tick)
	case bot.DecideResponse:
		events, err = state.App.SubmitResponse(sess, botID, decision.Response, decision.BlockRole, tick)
	case bot.DecideExchange:
		events, err = state.App.SubmitExchangeSelection(sess, botID, decision.KeptCardIDs, tick)
	case bot.DecideReturn:
		events, err = state.App.SubmitReturnCard(sess, botID, decision.ReturnCardID, tick)
	default:
		return
	}
	if err != nil {
		logger.Warn("applyBotDecision: bot %s move rejected: %v", botID, err)
		return
	}
	if len(events) > 0 {
		state.Dirty = true
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// sendSnapshot sends the viewer-filtered session state to one user.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	view := domain.VisibleState(state.Session, userID)
	bytes, err := json.Marshal(view)
	if err != nil {
		logger.Error("sendSnapshot: marshal failed: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpSessionSnapshot, bytes, []runtime.Presence{presence}, nil, true)
}

// opCodeForEvent maps engine events to wire opcodes.
func opCodeForEvent(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventPlayerJoined:
		return OpPlayerJoined, true
	case app.EventPlayerLeft:
		return OpPlayerLeft, true
	case app.EventPlayerDisconnected:
		return OpPlayerDisconnected, true
	case app.EventPlayerReconnected:
		return OpPlayerReconnected, true
	case app.EventPlayerRemoved:
		return OpPlayerRemoved, true
	case app.EventLeaderChanged:
		return OpLeaderChanged, true
	case app.EventGameStarted:
		return OpGameStarted, true
	case app.EventHandDealt:
		return OpHandDealt, true
	case app.EventActionProposed:
		return OpActionProposed, true
	case app.EventResponseSubmitted:
		return OpResponseSubmitted, true
	case app.EventBlockDeclared:
		return OpBlockDeclared, true
	case app.EventChallengeResolved:
		return OpChallengeResolved, true
	case app.EventInfluenceLost:
		return OpInfluenceLost, true
	case app.EventActionExecuted:
		return OpActionExecuted, true
	case app.EventActionCancelled:
		return OpActionCancelled, true
	case app.EventExchangeOffer:
		return OpExchangeOffer, true
	case app.EventExchangeCompleted:
		return OpExchangeCompleted, true
	case app.EventCardReturned:
		return OpCardReturned, true
	case app.EventTurnChanged:
		return OpTurnChanged, true
	case app.EventPlayerEliminated:
		return OpPlayerEliminated, true
	case app.EventGameEnded:
		return OpGameEnded, true
	}
	return 0, false
}

// broadcastEvent converts an engine event to a wire message and dispatches
// it, honoring targeted recipients.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := opCodeForEvent(ev.Kind)
	if !ok {
		logger.Warn("broadcastEvent: unknown event kind %s", ev.Kind)
		return
	}
	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("broadcastEvent: marshal %s failed: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Targeted event with no connected recipient (e.g. a bot's hand)
		// must never fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sendError reports a rejected request back to its sender only.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	bytes, err := json.Marshal(errorPayload{Code: "rejected", Message: cause.Error()})
	if err != nil {
		logger.Error("sendError: marshal failed: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelBytes, err := json.Marshal(domain.ComputeLabel(state.Session))
	if err != nil {
		logger.Error("updateLabel: marshal failed: %v", err)
		return
	}
	label := string(labelBytes)
	if label == state.LastLabel {
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("updateLabel: update failed: %v", err)
		return
	}
	state.LastLabel = label
}

// persist saves the session when it changed. The match loop is the only
// writer, so a version conflict means external interference and is logged
// rather than retried.
func (mh *matchHandler) persist(ctx context.Context, state *MatchState, logger runtime.Logger) {
	if !state.Dirty {
		return
	}
	version, err := state.Store.Save(ctx, state.Session, state.Version)
	if err != nil {
		if errors.Is(err, ports.ErrVersionConflict) {
			logger.Error("persist: version conflict on session %s", state.Session.ID)
		} else {
			logger.Warn("persist: save failed: %v", err)
		}
		return
	}
	state.Version = version
	state.Dirty = false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	mh.persist(ctx, matchState, logger)
	logger.Debug("MatchTerminate: reason %d", reason)
	return matchState
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
