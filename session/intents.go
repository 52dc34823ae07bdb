package session

import (
	"context"

	"github.com/petal-labs/wit/core"
)

// Intents lists the app's intents.
func (s *Session) Intents(ctx context.Context) (*core.Result, error) {
	return s.client.Send(ctx, core.MethodGet, s.path(nil, "intents"), nil)
}

// Intent fetches one intent with its expressions.
func (s *Session) Intent(ctx context.Context, id string) (*core.Result, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	return s.client.Send(ctx, core.MethodGet, s.path(nil, "intents", id), nil)
}
