package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"coup/internal/app"
	"coup/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcCreateRoom, rpcCreateRoom); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcJoinByCode, rpcJoinByCode); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcVoiceToken, rpcVoiceToken)
}

// MatchResponse is the payload returned by the discovery RPCs.
type MatchResponse struct {
	MatchID  string `json:"match_id"`
	JoinCode string `json:"join_code,omitempty"`
	IsNew    bool   `json:"is_new"`
}

// rpcQuickMatch finds a public lobby with an open seat or creates one.
func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	query := "+label.open:>=1 +label.game:coup +label.phase:lobby"
	limit := 10
	authoritative := true
	minSize := 0
	maxSize := 6

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcQuickMatch [user:%s]: match list failed: %v", userID, err)
		return "", err
	}

	if len(matches) > 0 {
		b, _ := json.Marshal(MatchResponse{MatchID: matches[0].MatchId, IsNew: false})
		return string(b), nil
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameCoup, map[string]interface{}{"public": true})
	if err != nil {
		logger.Error("rpcQuickMatch [user:%s]: match create failed: %v", userID, err)
		return "", err
	}
	b, _ := json.Marshal(MatchResponse{MatchID: matchID, IsNew: true})
	return string(b), nil
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Public   bool   `json:"public"`
	Capacity int    `json:"capacity"`
}

// rpcCreateRoom creates a room with explicit settings. Private rooms are only
// reachable through their join code.
func rpcCreateRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req createRoomRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
		}
	}

	params := map[string]interface{}{
		"public": req.Public,
		"name":   req.Name,
	}
	if req.Capacity > 0 {
		params["capacity"] = float64(req.Capacity)
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameCoup, params)
	if err != nil {
		logger.Error("rpcCreateRoom: match create failed: %v", err)
		return "", err
	}

	// The handler put the join code in the label at init.
	joinCode := ""
	if match, err := nk.MatchGet(ctx, matchID); err == nil && match != nil {
		var label struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal([]byte(match.GetLabel().GetValue()), &label); err == nil {
			joinCode = label.Code
		}
	}

	b, _ := json.Marshal(MatchResponse{MatchID: matchID, JoinCode: joinCode, IsNew: true})
	return string(b), nil
}

type joinByCodeRequest struct {
	Code string `json:"code"`
}

// rpcJoinByCode resolves a join code to its match.
func rpcJoinByCode(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req joinByCodeRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", 3)
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return "", runtime.NewError("join code required", 3)
	}

	query := fmt.Sprintf("+label.game:coup +label.code:%s", code)
	limit := 1
	authoritative := true

	matches, err := nk.MatchList(ctx, limit, authoritative, "", nil, nil, query)
	if err != nil {
		logger.Error("rpcJoinByCode: match list failed: %v", err)
		return "", err
	}
	if len(matches) == 0 {
		return "", runtime.NewError("room not found", 5) // NOT_FOUND
	}

	b, _ := json.Marshal(MatchResponse{MatchID: matches[0].MatchId, IsNew: false})
	return string(b), nil
}

type voiceTokenRequest struct {
	Action    string `json:"action"`
	SessionID string `json:"session_id,omitempty"`
}

// rpcVoiceToken signs a Vivox token for the caller. Credentials come from the
// runtime environment, falling back to the game config file.
func rpcVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16) // UNAUTHENTICATED
	}

	var req voiceTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", 3)
	}

	cfg := config.GetGameConfig()
	secret, issuer, domain := cfg.VoiceSecret, cfg.VoiceIssuer, cfg.VoiceDomain
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if v := env["voice_secret"]; v != "" {
			secret = v
		}
		if v := env["voice_issuer"]; v != "" {
			issuer = v
		}
		if v := env["voice_domain"]; v != "" {
			domain = v
		}
	}

	svc := app.NewVoiceService(secret, issuer, domain)
	token, err := svc.GenerateToken(userID, req.Action, req.SessionID)
	if err != nil {
		logger.Warn("rpcVoiceToken [user:%s]: %v", userID, err)
		return "", runtime.NewError(err.Error(), 3)
	}

	b, _ := json.Marshal(map[string]string{"token": token})
	return string(b), nil
}
