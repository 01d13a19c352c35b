package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/runtime"
)

type voiceTokenResponse struct {
	Token string `json:"token"`
}

func voiceTestContext() context.Context {
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user123")
	return context.WithValue(ctx, runtime.RUNTIME_CTX_ENV, map[string]string{
		"voice_secret": "test-secret",
		"voice_issuer": "issuer",
		"voice_domain": "example.com",
	})
}

func TestRpcVoiceTokenLogin(t *testing.T) {
	raw, err := rpcVoiceToken(voiceTestContext(), noopLogger{}, nil, nil, `{"action":"login"}`)
	if err != nil {
		t.Fatalf("rpcVoiceToken: %v", err)
	}

	var resp voiceTokenResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected token in response")
	}

	claims := parseTokenClaims(t, resp.Token, "test-secret")
	assertClaim(t, claims, "iss", "issuer")
	assertClaim(t, claims, "sub", "user123")
	assertClaim(t, claims, "vxa", "login")
	assertClaim(t, claims, "f", "sip:.issuer.user123.@example.com")
}

func TestRpcVoiceTokenJoinBindsSession(t *testing.T) {
	raw, err := rpcVoiceToken(voiceTestContext(), noopLogger{}, nil, nil, `{"action":"join","session_id":"match-7"}`)
	if err != nil {
		t.Fatalf("rpcVoiceToken: %v", err)
	}

	var resp voiceTokenResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	claims := parseTokenClaims(t, resp.Token, "test-secret")
	assertClaim(t, claims, "vxa", "join")
	assertClaim(t, claims, "t", "sip:confctl-g-match-7@example.com")
}

func TestRpcVoiceTokenRequiresAuth(t *testing.T) {
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, map[string]string{})
	if _, err := rpcVoiceToken(ctx, noopLogger{}, nil, nil, `{"action":"login"}`); err == nil {
		t.Fatal("expected error for unauthenticated caller")
	}
}

func parseTokenClaims(t *testing.T, tokenString, secret string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	if !token.Valid {
		t.Fatal("token is invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not map claims")
	}
	return claims
}

func assertClaim(t *testing.T, claims jwt.MapClaims, key, expected string) {
	t.Helper()
	val, ok := claims[key]
	if !ok {
		t.Errorf("missing claim: %s", key)
		return
	}
	str, ok := val.(string)
	if !ok {
		t.Errorf("claim %s is not a string: %v", key, val)
		return
	}
	if str != expected {
		t.Errorf("claim %s = %s, want %s", key, str, expected)
	}
}
