package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type GameConfig struct {
	ResponseWindowSeconds int `json:"response_window_seconds"`
	BlockWindowSeconds    int `json:"block_window_seconds"`
	ExchangeWindowSeconds int `json:"exchange_window_seconds"`
	ReturnWindowSeconds   int `json:"return_window_seconds"`
	// DisconnectGraceSeconds is how long a dropped player keeps their seat.
	DisconnectGraceSeconds int `json:"disconnect_grace_seconds"`
	// EmptySessionGraceSeconds is how long a session with no connected
	// humans survives before deletion.
	EmptySessionGraceSeconds int `json:"empty_session_grace_seconds"`
	// BotActDelaySeconds configures how many seconds a bot waits before
	// acting, so play feels paced rather than instant.
	BotActDelaySeconds int `json:"bot_act_delay_seconds"`
	// BotAutoFillDelaySeconds configures how long a lone human waits in a
	// lobby before a bot opponent is seated.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`

	VoiceSecret string `json:"voice_secret"`
	VoiceIssuer string `json:"voice_issuer"`
	VoiceDomain string `json:"voice_domain"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *GameConfig {
	return &GameConfig{
		ResponseWindowSeconds:    15,
		BlockWindowSeconds:       15,
		ExchangeWindowSeconds:    30,
		ReturnWindowSeconds:      30,
		DisconnectGraceSeconds:   60,
		EmptySessionGraceSeconds: 300,
		BotActDelaySeconds:       2,
		BotAutoFillDelaySeconds:  5,
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. Missing
// or unset windows fall back to the defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := Defaults()
		if err := json.Unmarshal(data, c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		applyFloors(c)
		cfg = c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, defaults if no file
// was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return Defaults()
	}
	return cfg
}

// applyFloors keeps every window positive so a bad file cannot produce
// instant timeouts.
func applyFloors(c *GameConfig) {
	floor := func(v *int, min int) {
		if *v < min {
			*v = min
		}
	}
	floor(&c.ResponseWindowSeconds, 1)
	floor(&c.BlockWindowSeconds, 1)
	floor(&c.ExchangeWindowSeconds, 1)
	floor(&c.ReturnWindowSeconds, 1)
	floor(&c.DisconnectGraceSeconds, 1)
	floor(&c.EmptySessionGraceSeconds, 1)
	floor(&c.BotActDelaySeconds, 0)
	floor(&c.BotAutoFillDelaySeconds, 0)
}
