package services

import (
	"time"

	"github.com/credguard/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ReplayGuard remembers accepted TOTP codes per user so a code observed in
// transit cannot be replayed while it is still inside the validation window.
type ReplayGuard struct {
	seen   *cache.Cache
	window time.Duration
}

// NewReplayGuard keeps each claim for window. AccountService raises the
// window to the TOTP acceptance window when it is shorter.
func NewReplayGuard(window time.Duration) *ReplayGuard {
	return &ReplayGuard{seen: cache.New(window, 2*window), window: window}
}

// cover raises the claim lifetime to at least acceptance. It must be called
// before the guard is shared.
func (g *ReplayGuard) cover(acceptance time.Duration) {
	if g == nil || g.window >= acceptance {
		return
	}
	logger.Warn("replay_window_raised", map[string]interface{}{
		"configured": g.window.String(),
		"acceptance": acceptance.String(),
	})
	g.window = acceptance
}

// Claim records code for userID and reports whether it had not been claimed
// before. Concurrent claims for the same code admit exactly one caller.
func (g *ReplayGuard) Claim(userID uuid.UUID, code string) bool {
	if g == nil {
		return true
	}
	return g.seen.Add(userID.String()+":"+code, struct{}{}, g.window) == nil
}
