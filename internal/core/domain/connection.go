package domain

import (
	"errors"
	"fmt"
)

// ConnState is the lifecycle state of the live channel connection.
type ConnState string

const (
	ConnDisabled   ConnState = "disabled"
	ConnConnecting ConnState = "connecting"
	ConnConnected  ConnState = "connected"
	ConnError      ConnState = "error"
)

var (
	ErrInvalidTransition = errors.New("invalid connection transition")
	ErrSessionActive     = errors.New("live tracking already enabled for another session")
)

// validTransitions defines the allowed state machine transitions. Moving to
// ConnDisabled is always allowed and is not listed.
var validTransitions = map[ConnState][]ConnState{
	ConnDisabled:   {ConnConnecting},
	ConnConnecting: {ConnConnected, ConnError},
}

// CanTransitionTo reports whether a transition from current state to next is valid.
func (s ConnState) CanTransitionTo(next ConnState) bool {
	if next == ConnDisabled {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next when the move is legal.
func (s ConnState) Transition(next ConnState) (ConnState, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// Toggles are the three switches that drive the sync service. Live is the
// master switch.
type Toggles struct {
	Live       bool `json:"live"`
	Simulation bool `json:"simulation"`
	Broadcast  bool `json:"broadcast"`
}

// SyncStatus is a point-in-time view of the sync service.
type SyncStatus struct {
	State        ConnState     `json:"state"`
	Toggles      Toggles       `json:"toggles"`
	Capabilities Capabilities  `json:"capabilities"`
	Identity     string        `json:"identity,omitempty"`
	OwnerID      string        `json:"owner_id,omitempty"`
	LocalStatus  TrackerStatus `json:"local_status"`
	Buffered     int           `json:"buffered"`
}
