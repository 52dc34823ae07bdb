package session

// Entity is the payload for creating or updating an entity.
type Entity struct {
	ID      string        `json:"id,omitempty" yaml:"id"`
	Doc     string        `json:"doc,omitempty" yaml:"doc,omitempty"`
	Lookups []string      `json:"lookups,omitempty" yaml:"lookups,omitempty"`
	Values  []EntityValue `json:"values,omitempty" yaml:"values,omitempty"`
}

// EntityValue is one canonical value of an entity with the expressions
// that map to it.
type EntityValue struct {
	Value       string   `json:"value" yaml:"value"`
	Expressions []string `json:"expressions,omitempty" yaml:"expressions,omitempty"`
	Metadata    string   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// expressionPayload is the body of AddExpression.
type expressionPayload struct {
	Expression string `json:"expression"`
}
