// Package limiter bounds concurrent downloads per user
package limiter

import (
	"sync"

	"github.com/rs/zerolog"
)

// Limiter tracks in-flight downloads per user and enforces a quota.
// Privileged users are exempt from the quota.
type Limiter struct {
	mu         sync.Mutex
	quota      int
	privileged map[int64]struct{}
	active     map[int64]map[string]struct{}
	logger     zerolog.Logger
}

// New creates a limiter with the given per-user quota and privileged set
func New(quota int, privilegedIDs []int64, logger zerolog.Logger) *Limiter {
	privileged := make(map[int64]struct{}, len(privilegedIDs))
	for _, id := range privilegedIDs {
		privileged[id] = struct{}{}
	}

	return &Limiter{
		quota:      quota,
		privileged: privileged,
		active:     make(map[int64]map[string]struct{}),
		logger:     logger,
	}
}

// Start atomically checks the quota and registers a slot. Returns
// false without side effects when the user is at quota.
func (l *Limiter) Start(userID int64, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.canStartLocked(userID) {
		l.logger.Info().
			Int64("user_id", userID).
			Int("active", len(l.active[userID])).
			Int("quota", l.quota).
			Msg("Download limit reached")
		return false
	}

	slots, ok := l.active[userID]
	if !ok {
		slots = make(map[string]struct{})
		l.active[userID] = slots
	}
	slots[token] = struct{}{}

	l.logger.Debug().
		Int64("user_id", userID).
		Str("token", token).
		Int("active", len(slots)).
		Msg("Download slot registered")

	return true
}

// Finish releases a slot. Safe to call when the slot was never
// registered or was already released.
func (l *Limiter) Finish(userID int64, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slots, ok := l.active[userID]
	if !ok {
		return
	}

	delete(slots, token)
	if len(slots) == 0 {
		delete(l.active, userID)
	}

	l.logger.Debug().
		Int64("user_id", userID).
		Str("token", token).
		Int("active", len(slots)).
		Msg("Download slot released")
}

// ActiveCount returns the number of live slots for a user
func (l *Limiter) ActiveCount(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active[userID])
}

// IsPrivileged reports whether the user bypasses the quota
func (l *Limiter) IsPrivileged(userID int64) bool {
	_, ok := l.privileged[userID]
	return ok
}

// Quota returns the configured per-user quota
func (l *Limiter) Quota() int {
	return l.quota
}

func (l *Limiter) canStartLocked(userID int64) bool {
	if _, ok := l.privileged[userID]; ok {
		return true
	}
	return len(l.active[userID]) < l.quota
}
