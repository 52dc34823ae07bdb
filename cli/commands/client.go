package commands

import (
	"github.com/petal-labs/wit/core"
	"github.com/petal-labs/wit/session"
	"github.com/petal-labs/wit/telemetry"
)

// newSession builds a client from the resolved settings and wraps it.
func (a *App) newSession() (*session.Session, error) {
	cfg, err := a.coreConfig()
	if err != nil {
		return nil, err
	}

	client, err := a.newClient(cfg,
		core.WithLogger(a.logger),
		core.WithTelemetry(telemetry.NewLogHook(a.logger)),
		core.WithUserAgent(userAgent()),
	)
	if err != nil {
		return nil, err
	}
	return session.New(client, session.WithAPIVersion(a.v.GetString("api-version"))), nil
}

// run resolves a session, calls op and prints its result. Every API command
// goes through here so errors get consistent reporting and exit codes.
func (a *App) run(op func(s *session.Session) (*core.Result, error)) error {
	s, err := a.newSession()
	if err != nil {
		return a.handleError(err)
	}
	res, err := op(s)
	if err != nil {
		return a.handleError(err)
	}
	return a.printResult(res)
}
