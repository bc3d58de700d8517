package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/pkg/vaillant"
)

func gateAt(t0 time.Time) (*Gate, *time.Time) {
	now := t0
	g := NewGate()
	g.now = func() time.Time {
		return now
	}
	return g, &now
}

func TestGateOpenByDefault(t *testing.T) {
	g, _ := gateAt(time.Now())
	assert.Nil(t, g.Admit())
	assert.Equal(t, GATE_OPEN, g.State())
}

func TestGateQuotaCooldown(t *testing.T) {
	t0 := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)
	g, now := gateAt(t0)

	paused := g.Observe(fmt.Errorf("api error: %w",
		&vaillant.StatusError{Code: 429, Message: "Quota Exceeded"}))
	assert.True(t, paused)
	assert.Equal(t, GATE_QUOTA_COOLDOWN, g.State())

	// every admit during the cooldown fails fast with the remaining wait
	for _, elapsed := range []time.Duration{0, time.Minute, time.Hour, 3*time.Hour - time.Second} {
		*now = t0.Add(elapsed)
		err := g.Admit()
		if assert.NotNil(t, err) {
			assert.Equal(t, domain.UpdateFailedQuota, err.Kind)
			assert.Equal(t, QuotaPauseInterval-elapsed, err.RetryIn)
		}
	}

	// recovered shortly after the pause interval
	*now = t0.Add(QuotaPauseInterval + 10*time.Second)
	assert.Nil(t, g.Admit())
	assert.Equal(t, GATE_OPEN, g.State())
}

func TestGateOutageCooldown(t *testing.T) {
	t0 := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)
	g, now := gateAt(t0)

	paused := g.Observe(fmt.Errorf("get: %w", context.DeadlineExceeded))
	assert.True(t, paused)
	assert.Equal(t, GATE_OUTAGE_COOLDOWN, g.State())

	*now = t0.Add(10 * time.Minute)
	err := g.Admit()
	if assert.NotNil(t, err) {
		assert.Equal(t, domain.UpdateFailedOutage, err.Kind)
		assert.Equal(t, 5*time.Minute, err.RetryIn)
	}

	*now = t0.Add(APIDownPauseInterval + 10*time.Second)
	assert.Nil(t, g.Admit())
	assert.Equal(t, GATE_OPEN, g.State())
}

func TestGateIgnoresOtherErrors(t *testing.T) {
	g, _ := gateAt(time.Now())
	assert.False(t, g.Observe(errors.New("boom")))
	assert.False(t, g.Observe(nil))
	assert.Nil(t, g.Admit())
}

func TestGateSharedAcrossPollers(t *testing.T) {
	t0 := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)
	g, now := gateAt(t0)

	// a quota error from one poller pauses the other too
	g.StampQuota()
	*now = t0.Add(time.Minute)
	assert.NotNil(t, g.Admit())
	assert.NotNil(t, g.Admit())

	// quota cooldown outlasts an outage stamped later
	g.StampOutage()
	*now = t0.Add(APIDownPauseInterval + time.Minute)
	err := g.Admit()
	if assert.NotNil(t, err) {
		assert.Equal(t, domain.UpdateFailedQuota, err.Kind)
	}
}
