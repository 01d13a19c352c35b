package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// VoiceService signs Vivox access tokens so clients can join their table's
// voice channel. Channels are named after the session ID, one per table.
type VoiceService struct {
	secret string
	issuer string
	domain string
}

const (
	VoiceTokenActionLogin = "login"
	VoiceTokenActionJoin  = "join"

	voiceTokenTTL = time.Hour
)

func NewVoiceService(secret, issuer, domain string) *VoiceService {
	return &VoiceService{secret: secret, issuer: issuer, domain: domain}
}

// GenerateToken signs a token for the given action. Join tokens bind the user
// to a single session's channel.
func (s *VoiceService) GenerateToken(userID, action, sessionID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("voice service is nil")
	}
	if userID == "" {
		return "", fmt.Errorf("user is required")
	}
	if s.secret == "" || s.issuer == "" || s.domain == "" {
		return "", fmt.Errorf("voice config is incomplete")
	}

	userURI := s.userURI(userID)
	targetURI, err := s.targetURI(action, sessionID, userURI)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"exp": time.Now().Add(voiceTokenTTL).Unix(),
		"vxa": action,
		"vxi": fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Int63()),
		"f":   userURI,
		"t":   targetURI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *VoiceService) userURI(userID string) string {
	return "sip:." + s.issuer + "." + userID + ".@" + s.domain
}

func (s *VoiceService) channelURI(sessionID string) string {
	return "sip:confctl-g-" + sessionID + "@" + s.domain
}

func (s *VoiceService) targetURI(action, sessionID, userURI string) (string, error) {
	switch action {
	case VoiceTokenActionLogin:
		return userURI, nil
	case VoiceTokenActionJoin:
		if sessionID == "" {
			return "", fmt.Errorf("session id is required for join tokens")
		}
		return s.channelURI(sessionID), nil
	default:
		return "", fmt.Errorf("unsupported voice action: %s", action)
	}
}
