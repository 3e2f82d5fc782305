package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Policy is the root of the manifest.
type Policy struct {
	Resources map[string]*Resource `json:"resources"`
	Scopes    map[string]*Scope    `json:"scopes"`
}

// Resource describes one cached module file.
type Resource struct {
	Integrity    Integrity         `json:"integrity"`
	Dependencies map[string]string `json:"dependencies"`
	Cascade      bool              `json:"cascade"`
}

// Scope describes the trust boundary of a project root.
type Scope struct {
	Integrity    bool              `json:"integrity"`
	Dependencies map[string]string `json:"dependencies"`
	Cascade      bool              `json:"cascade"`
}

// Integrity is either a subresource integrity string or the literal true
// for trusted files that are not hashed.
type Integrity struct {
	hash string
}

// Trusted is the integrity value of files that are not hash checked.
var Trusted = Integrity{}

// Hash returns an Integrity for an "sha256-..." string.
func Hash(sri string) Integrity { return Integrity{hash: sri} }

// String returns the hash, or "true" for [Trusted].
func (i Integrity) String() string {
	if i.hash == "" {
		return "true"
	}
	return i.hash
}

// IsTrusted reports whether i carries no hash.
func (i Integrity) IsTrusted() bool { return i.hash == "" }

func (i Integrity) MarshalJSON() ([]byte, error) {
	if i.hash == "" {
		return []byte("true"), nil
	}
	return json.Marshal(i.hash)
}

func (i *Integrity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("true")) {
		*i = Trusted
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("integrity must be a string or true: %w", err)
	}
	if s == "" {
		return fmt.Errorf("integrity must not be empty")
	}
	*i = Hash(s)
	return nil
}
