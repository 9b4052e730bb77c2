// Package tracking keeps an explicit lifecycle state for every entity loaded
// through or registered with a Session and turns those states into inserts,
// updates and deletes when changes are saved.
package tracking

import "fmt"

// State is the lifecycle state of a tracked entity.
type State int

const (
	// Detached entities are not known to the session.
	Detached State = iota
	// Unchanged entities match the row in the database.
	Unchanged
	// Deleted entities are removed on the next save.
	Deleted
	// Modified entities are updated on the next save.
	Modified
	// Added entities are inserted on the next save.
	Added
)

var stateNames = [...]string{
	Detached:  "Detached",
	Unchanged: "Unchanged",
	Deleted:   "Deleted",
	Modified:  "Modified",
	Added:     "Added",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Pending reports whether a save would write the entity.
func (s State) Pending() bool {
	return s == Added || s == Modified || s == Deleted
}
