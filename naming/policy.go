package naming

import "encoding/json"

// Policy selects how bot names are derived within a batch.
type Policy int

const (
	AppendedID Policy = iota
	RandomHex
	Binary
	Realistic
)

var policyNames = map[Policy]string{
	AppendedID: "appended_id",
	RandomHex:  "random_hex",
	Binary:     "binary",
	Realistic:  "realistic",
}

// ParsePolicy maps a wire name to a Policy. Unrecognized names fall back to
// AppendedID.
func ParsePolicy(s string) Policy {
	for p, name := range policyNames {
		if name == s {
			return p
		}
	}
	return AppendedID
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return policyNames[AppendedID]
}

// NeedsExternalNames reports whether the policy draws from a fetched pool.
func (p Policy) NeedsExternalNames() bool {
	return p == Realistic
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	*p = ParsePolicy(string(text))
	return nil
}

// UnmarshalJSON accepts any JSON value; non-strings also fall back to AppendedID.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*p = AppendedID
		return nil
	}
	*p = ParsePolicy(s)
	return nil
}
