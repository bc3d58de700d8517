package port

import (
	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/pkg/vaillant"
)

// HeatingAPI is the outbound port to the vendor cloud. pkg/vaillant provides
// the production implementation and an in-memory test double.
type HeatingAPI = vaillant.API

// UpdateGate throttles cloud access shared between the pollers.
type UpdateGate interface {
	// Admit reports nil when a request may proceed, or the remaining
	// cooldown as an UpdateFailedError. It never performs network I/O.
	Admit() *domain.UpdateFailedError
	// Observe classifies an error from a finished request and starts the
	// matching cooldown. Reports whether the error paused the gate.
	Observe(err error) bool
}
