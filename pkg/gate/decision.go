package gate

import (
	"encoding/json"
	"fmt"
)

// Decision is the tri-state outcome of a gate
type Decision int

const (
	// Pending means the decision is not known yet; nothing is rendered
	Pending Decision = iota
	// Granted means the guarded content may be shown
	Granted
	// Denied means the unauthorized view is shown
	Denied
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Resolved reports whether d is Granted or Denied
func (d Decision) Resolved() bool {
	return d == Granted || d == Denied
}

// MarshalJSON encodes the decision as its name
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
