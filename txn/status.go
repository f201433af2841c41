package txn

import (
	"fmt"
	"strings"
)

// State is the lifecycle position of a submitted transaction.
type State int

const (
	Pending State = iota
	Executed
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Executed:
		return "executed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is a transaction's observed status. VMStatus explains an abort.
type Status struct {
	State    State
	VMStatus string
}

var (
	StatusPending  = Status{State: Pending}
	StatusExecuted = Status{State: Executed}
)

// AbortedWith returns an aborted status carrying vmStatus.
func AbortedWith(vmStatus string) Status {
	return Status{State: Aborted, VMStatus: vmStatus}
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s.State == Executed || s.State == Aborted
}

// String renders "pending", "executed" or "aborted:<vm status>".
func (s Status) String() string {
	if s.State == Aborted {
		return "aborted:" + s.VMStatus
	}
	return s.State.String()
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(text string) (Status, error) {
	switch {
	case text == "pending":
		return StatusPending, nil
	case text == "executed":
		return StatusExecuted, nil
	case strings.HasPrefix(text, "aborted:"):
		return AbortedWith(strings.TrimPrefix(text, "aborted:")), nil
	default:
		return Status{}, fmt.Errorf("txn: unknown status %q", text)
	}
}
