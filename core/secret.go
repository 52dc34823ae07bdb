package core

import "strings"

// Secret holds a bearer token and keeps it out of logs and serialized output.
// Surrounding whitespace is dropped on construction, so a token read from a
// file or terminal with a trailing newline behaves like the bare token.
//
//	s := NewSecret(" abc123\n")
//	fmt.Println(s)   // [REDACTED]
//	s.Expose()       // "abc123"
type Secret struct {
	value string
}

// NewSecret trims value and wraps it.
func NewSecret(value string) Secret {
	return Secret{value: strings.TrimSpace(value)}
}

// String implements fmt.Stringer with a redacted placeholder.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString keeps %#v redacted as well.
func (s Secret) GoString() string {
	return "core.Secret{[REDACTED]}"
}

// MarshalJSON encodes a redacted placeholder.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// MarshalText encodes a redacted placeholder (covers YAML and similar encoders).
func (s Secret) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// Expose returns the token. Only use it to build the Authorization header.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty reports whether no token is set.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}
