package systemstate

import (
	"fmt"
	"sync"
)

// State is the global availability state of the engine.
type State string

const (
	StateStarting       State = "STARTING"
	StateAvailable      State = "AVAILABLE"
	StateUpdatingStats  State = "UPDATING_STATS"
	StateWriteExecuted  State = "WRITE_EXECUTED"
	StateResettingStats State = "RESETTING_STATS"
)

// ReadAllowed reports whether read operations may proceed in this state.
func (s State) ReadAllowed() bool {
	switch s {
	case StateStarting, StateResettingStats:
		return false
	default:
		return true
	}
}

// WriteAllowed reports whether mutating operations may proceed in this state.
func (s State) WriteAllowed() bool {
	switch s {
	case StateStarting, StateUpdatingStats, StateResettingStats:
		return false
	default:
		return true
	}
}

var transitions = map[State][]State{
	StateStarting:       {StateAvailable},
	StateAvailable:      {StateUpdatingStats, StateWriteExecuted, StateResettingStats},
	StateUpdatingStats:  {StateAvailable, StateWriteExecuted},
	StateWriteExecuted:  {StateAvailable, StateUpdatingStats, StateResettingStats},
	StateResettingStats: {StateAvailable},
}

// Holder owns the single mutable system state. Construct one at startup and
// pass it to whatever needs gating; there is no package-level instance.
//
// Every arrival at WRITE_EXECUTED bumps a write generation, so consumers that
// cache derived data can tell "no writes since I looked" apart from "the flag
// was cleared and raised again".
type Holder struct {
	mu      sync.RWMutex
	current State
	writes  uint64
}

func NewHolder() *Holder {
	return &Holder{current: StateStarting}
}

func (h *Holder) Current() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// WriteGeneration returns the number of writes flagged so far.
func (h *Holder) WriteGeneration() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.writes
}

// Advance moves to next if the transition is legal. Advancing to the current
// state is a no-op, except that WRITE_EXECUTED -> WRITE_EXECUTED still counts
// as a new write.
func (h *Holder) Advance(next State) error {
	_, err := h.Swap(next)
	return err
}

// Swap is Advance returning the state it replaced, decided under the same
// lock as the transition itself.
func (h *Holder) Swap(next State) (State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	previous := h.current
	if next == h.current {
		if next == StateWriteExecuted {
			h.writes++
		}
		return previous, nil
	}
	for _, allowed := range transitions[h.current] {
		if allowed == next {
			h.current = next
			if next == StateWriteExecuted {
				h.writes++
			}
			return previous, nil
		}
	}

	return previous, fmt.Errorf("illegal state transition %s -> %s", h.current, next)
}

// AcknowledgeWrites clears WRITE_EXECUTED back to AVAILABLE, but only while
// no write has landed after the given generation was read. Reports whether
// the flag was cleared.
func (h *Holder) AcknowledgeWrites(generation uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != StateWriteExecuted || h.writes != generation {
		return false
	}
	h.current = StateAvailable
	return true
}
