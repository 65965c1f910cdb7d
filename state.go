package agora

import "fmt"

// SubscriptionState tracks where one subscription is in its lifecycle.
type SubscriptionState int

const (
	// StateIdle: constructed, not yet started.
	StateIdle SubscriptionState = iota
	// StateLoading: initial fetch in flight; no room joined yet.
	StateLoading
	// StateActive: fetched, joined, reconciling incoming events.
	StateActive
	// StateDegraded: a fetch or transport error occurred. Previously
	// fetched data is kept, reconciliation is paused, and no room is
	// joined until Retry.
	StateDegraded
	// StateTornDown is terminal. Room membership and handlers are
	// released; the subscription can never be restarted.
	StateTornDown
)

func (s SubscriptionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateActive:
		return "Active"
	case StateDegraded:
		return "Degraded"
	case StateTornDown:
		return "TornDown"
	default:
		return "InvalidState"
	}
}

func (s SubscriptionState) validateTransitionTo(next SubscriptionState) error {
	// Teardown is reachable from everywhere except itself.
	if next == StateTornDown && s != StateTornDown {
		return nil
	}

	switch s {
	case StateIdle:
		if next == StateLoading {
			return nil
		}
	case StateLoading:
		switch next {
		case StateActive, StateDegraded:
			return nil
		}
	case StateActive:
		if next == StateDegraded {
			return nil
		}
	case StateDegraded:
		// Retry re-runs the fetch.
		if next == StateLoading {
			return nil
		}
	}

	return fmt.Errorf("invalid subscription state transition from %v to %v", s, next)
}
