package session

// State is a step of a download session.
type State int

const (
	StateInit State = iota
	StateResolving
	StateAuthenticating
	StateListingVersions
	StateAwaitingSelection
	StateDownloadingFiles
	StateArchiving
	StateSaved
	StateError
)

var stateNames = [...]string{
	StateInit:              "init",
	StateResolving:         "resolving",
	StateAuthenticating:    "authenticating",
	StateListingVersions:   "listing versions",
	StateAwaitingSelection: "awaiting selection",
	StateDownloadingFiles:  "downloading files",
	StateArchiving:         "archiving",
	StateSaved:             "saved",
	StateError:             "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSaved || s == StateError
}

// next lists the forward transitions. Error is reachable from every
// non-terminal state and is not listed.
var next = map[State]State{
	StateInit:              StateResolving,
	StateResolving:         StateAuthenticating,
	StateAuthenticating:    StateListingVersions,
	StateListingVersions:   StateAwaitingSelection,
	StateAwaitingSelection: StateDownloadingFiles,
	StateDownloadingFiles:  StateArchiving,
	StateArchiving:         StateSaved,
}

func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateError {
		return true
	}
	n, ok := next[from]
	return ok && n == to
}
