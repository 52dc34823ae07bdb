// Package session exposes the Wit API operations: understanding text and
// speech, reading stored messages and intents, and managing entities with
// their values and expressions.
//
// Every operation is a thin wrapper over core.Client.Send and returns the
// parsed *core.Result, or the error classified by core:
//
//	client, err := core.NewClient(core.WithToken(token))
//	if err != nil {
//	    return err
//	}
//	s := session.New(client)
//	res, err := s.SendMessage(ctx, "set an alarm for 7am")
//
// Identifiers are path-escaped, so values such as "new york" are safe to
// pass as is. Blank identifiers fail with ErrMissingID before any request
// is made.
package session
