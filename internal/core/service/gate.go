package service

import (
	"sync"
	"time"

	"myvaillant2mqtt/internal/core/domain"
)

const (
	// QuotaPauseInterval is how long polling stays paused after the cloud
	// reports an exceeded request quota.
	QuotaPauseInterval = 3 * time.Hour
	// APIDownPauseInterval is how long polling stays paused after a
	// timeout or connection failure.
	APIDownPauseInterval = 15 * time.Minute
)

type GateState string

const (
	GATE_OPEN            GateState = "open"
	GATE_QUOTA_COOLDOWN  GateState = "quota_cooldown"
	GATE_OUTAGE_COOLDOWN GateState = "outage_cooldown"
)

// Gate throttles cloud access after quota or outage errors. It is shared by
// the system and energy pollers, so one poller hitting the quota pauses both.
// Admit never performs network I/O: during a cooldown it fails fast with the
// remaining wait.
type Gate struct {
	mu         sync.Mutex
	lastQuota  time.Time
	lastOutage time.Time
	now        func() time.Time
}

func NewGate() *Gate {
	return &Gate{now: time.Now}
}

// Admit reports whether a cloud request may proceed. During a cooldown it
// returns an UpdateFailedError carrying the remaining wait.
func (g *Gate) Admit() *domain.UpdateFailedError {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.lastQuota.IsZero() {
		if remaining := g.lastQuota.Add(QuotaPauseInterval).Sub(now); remaining > 0 {
			return &domain.UpdateFailedError{Kind: domain.UpdateFailedQuota, RetryIn: remaining}
		}
		g.lastQuota = time.Time{}
	}
	if !g.lastOutage.IsZero() {
		if remaining := g.lastOutage.Add(APIDownPauseInterval).Sub(now); remaining > 0 {
			return &domain.UpdateFailedError{Kind: domain.UpdateFailedOutage, RetryIn: remaining}
		}
		g.lastOutage = time.Time{}
	}
	return nil
}

// StampQuota records a quota error and starts the quota cooldown.
func (g *Gate) StampQuota() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastQuota = g.now()
}

// StampOutage records a timeout/connection error and starts the outage
// cooldown.
func (g *Gate) StampOutage() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastOutage = g.now()
}

// Observe classifies err and stamps the matching cooldown. Returns true when
// the error paused the gate.
func (g *Gate) Observe(err error) bool {
	if err == nil {
		return false
	}
	switch domain.ClassifyUpdateError(err) {
	case domain.UpdateFailedQuota:
		g.StampQuota()
		return true
	case domain.UpdateFailedOutage:
		g.StampOutage()
		return true
	}
	return false
}

func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.lastQuota.IsZero() && now.Before(g.lastQuota.Add(QuotaPauseInterval)) {
		return GATE_QUOTA_COOLDOWN
	}
	if !g.lastOutage.IsZero() && now.Before(g.lastOutage.Add(APIDownPauseInterval)) {
		return GATE_OUTAGE_COOLDOWN
	}
	return GATE_OPEN
}
