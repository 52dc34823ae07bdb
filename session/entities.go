package session

import (
	"context"
	"fmt"

	"github.com/petal-labs/wit/core"
)

// Entities lists the app's entities.
func (s *Session) Entities(ctx context.Context) (*core.Result, error) {
	return s.client.Send(ctx, core.MethodGet, s.path(nil, "entities"), nil)
}

// Entity fetches one entity with its values.
func (s *Session) Entity(ctx context.Context, id string) (*core.Result, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	return s.client.Send(ctx, core.MethodGet, s.path(nil, "entities", id), nil)
}

// CreateEntity creates a new entity.
func (s *Session) CreateEntity(ctx context.Context, e Entity) (*core.Result, error) {
	if err := requireIDs(e.ID); err != nil {
		return nil, fmt.Errorf("%w: entity id", err)
	}
	return s.client.Send(ctx, core.MethodPost, s.path(nil, "entities"), e)
}

// UpdateEntity replaces the entity identified by id.
func (s *Session) UpdateEntity(ctx context.Context, id string, e Entity) (*core.Result, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	return s.client.Send(ctx, core.MethodPut, s.path(nil, "entities", id), e)
}

// DeleteEntity removes an entity.
func (s *Session) DeleteEntity(ctx context.Context, id string) (*core.Result, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	return s.client.Send(ctx, core.MethodDelete, s.path(nil, "entities", id), nil)
}

// AddValue adds a value to an entity.
func (s *Session) AddValue(ctx context.Context, entityID string, v EntityValue) (*core.Result, error) {
	if err := requireIDs(entityID, v.Value); err != nil {
		return nil, err
	}
	return s.client.Send(ctx, core.MethodPost, s.path(nil, "entities", entityID, "values"), v)
}

// DeleteValue removes a value from an entity.
func (s *Session) DeleteValue(ctx context.Context, entityID, value string) (*core.Result, error) {
	if err := requireIDs(entityID, value); err != nil {
		return nil, err
	}
	return s.client.Send(ctx, core.MethodDelete, s.path(nil, "entities", entityID, "values", value), nil)
}

// AddExpression adds an expression to a value of an entity.
func (s *Session) AddExpression(ctx context.Context, entityID, value, expression string) (*core.Result, error) {
	if err := requireIDs(entityID, value, expression); err != nil {
		return nil, err
	}
	p := s.path(nil, "entities", entityID, "values", value, "expressions")
	return s.client.Send(ctx, core.MethodPost, p, expressionPayload{Expression: expression})
}

// DeleteExpression removes an expression from a value of an entity.
func (s *Session) DeleteExpression(ctx context.Context, entityID, value, expression string) (*core.Result, error) {
	if err := requireIDs(entityID, value, expression); err != nil {
		return nil, err
	}
	p := s.path(nil, "entities", entityID, "values", value, "expressions", expression)
	return s.client.Send(ctx, core.MethodDelete, p, nil)
}
