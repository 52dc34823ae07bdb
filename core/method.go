package core

import (
	"fmt"
	"net/http"
)

// Method is one of the HTTP verbs the Wit API accepts.
type Method int

// Supported verbs.
const (
	MethodGet Method = iota + 1
	MethodPut
	MethodPost
	MethodDelete
)

// methods is the closed verb table; a Method is valid only if listed here.
var methods = map[Method]string{
	MethodGet:    http.MethodGet,
	MethodPut:    http.MethodPut,
	MethodPost:   http.MethodPost,
	MethodDelete: http.MethodDelete,
}

// Valid reports whether m is a supported verb.
func (m Method) Valid() bool {
	_, ok := methods[m]
	return ok
}

// String returns the HTTP method name.
func (m Method) String() string {
	if s, ok := methods[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps an HTTP method name to a Method.
func ParseMethod(s string) (Method, error) {
	for m, name := range methods {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}
