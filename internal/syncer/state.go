package syncer

import (
	"fmt"
	"time"
)

// State is the lifecycle stage of the orchestrator.
type State int

const (
	Uninitialized State = iota
	Syncing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Syncing:
		return "syncing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	State    State      `json:"state"`
	Online   bool       `json:"online"`
	LastSync *time.Time `json:"lastSync,omitempty"`
}
