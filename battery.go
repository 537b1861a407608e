package main

import (
	"sync"
)

type BatteryChargeState int

const (
	ChargeStateUnknown BatteryChargeState = iota
	ChargeStateCritical
	ChargeStateLow
	ChargeStateIdeal
)

// Charge-state thresholds as fractions of the profile's full-scale state of
// charge. Recovery thresholds sit higher so a bank hovering around a limit
// does not flap between states.
const (
	chargeCriticalBelow   = 0.10
	chargeCriticalRecover = 0.15
	chargeLowBelow        = 0.25
	chargeLowRecover      = 0.30
)

// BatteryMonitor tracks the charge state of every named battery bank across
// telemetry cycles. Snapshot readings are ephemeral; this is the only place
// battery state survives between frames.
type BatteryMonitor struct {
	log       *LeveledLogger
	fullScale float64
	mu        sync.RWMutex
	states    map[string]BatteryChargeState
}

func NewBatteryMonitor(logger *LeveledLogger, fullScale float64) *BatteryMonitor {
	return &BatteryMonitor{
		log:       logger,
		fullScale: fullScale,
		states:    make(map[string]BatteryChargeState),
	}
}

func (b *BatteryMonitor) Destroy() {}

// Update folds one bank's state of charge into its tracked charge state and
// returns the new state.
func (b *BatteryMonitor) Update(name string, soc float64) BatteryChargeState {
	b.mu.Lock()
	defer b.mu.Unlock()

	fraction := soc / b.fullScale
	prev := b.states[name]
	next := nextChargeState(prev, fraction)

	if next != prev {
		b.log.Info("Battery %q charge state: %s -> %s (soc=%.2f)",
			name, stringifyChargeState(prev), stringifyChargeState(next), soc)
		b.states[name] = next
	}
	return next
}

// WorstState returns the most severe charge state across all tracked banks.
func (b *BatteryMonitor) WorstState() BatteryChargeState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	worst := ChargeStateUnknown
	for _, state := range b.states {
		if worst == ChargeStateUnknown || (state != ChargeStateUnknown && state < worst) {
			worst = state
		}
	}
	return worst
}

func nextChargeState(prev BatteryChargeState, fraction float64) BatteryChargeState {
	switch prev {
	case ChargeStateCritical:
		if fraction >= chargeLowRecover {
			return ChargeStateIdeal
		}
		if fraction >= chargeCriticalRecover {
			return ChargeStateLow
		}
		return ChargeStateCritical
	case ChargeStateLow:
		if fraction < chargeCriticalBelow {
			return ChargeStateCritical
		}
		if fraction >= chargeLowRecover {
			return ChargeStateIdeal
		}
		return ChargeStateLow
	default:
		if fraction < chargeCriticalBelow {
			return ChargeStateCritical
		}
		if fraction < chargeLowBelow {
			return ChargeStateLow
		}
		return ChargeStateIdeal
	}
}

func stringifyChargeState(state BatteryChargeState) string {
	switch state {
	case ChargeStateCritical:
		return "critical"
	case ChargeStateLow:
		return "low"
	case ChargeStateIdeal:
		return "ideal"
	case ChargeStateUnknown:
		fallthrough
	default:
		return "unknown"
	}
}
