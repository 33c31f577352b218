package auth

import "fmt"

// State is a position in the session lifecycle.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	TokenExpiring
)

var stateNames = [...]string{
	Anonymous:      "anonymous",
	Authenticating: "authenticating",
	Authenticated:  "authenticated",
	TokenExpiring:  "token_expiring",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText stores the state by name so persisted sessions survive
// reordering of the constants.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name. Unknown names decode as Anonymous.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	*s = Anonymous
	return nil
}
