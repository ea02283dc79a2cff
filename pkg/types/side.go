package types

import "fmt"

// Side is a binary market outcome: yes or no.
type Side bool

const (
	Yes Side = true
	No  Side = false
)

// Byte returns the single preimage byte appended to the secret when a
// commitment is computed: 1 for yes, 0 for no.
func (s Side) Byte() byte {
	if s {
		return 1
	}
	return 0
}

func (s Side) String() string {
	if s {
		return "yes"
	}
	return "no"
}

// ParseSide parses "yes"/"no" (and "true"/"false") into a Side.
func ParseSide(v string) (Side, error) {
	switch v {
	case "yes", "true":
		return Yes, nil
	case "no", "false":
		return No, nil
	}
	return No, fmt.Errorf("invalid side %q, want yes or no", v)
}
