package commands

import (
	"github.com/spf13/cobra"

	"github.com/petal-labs/wit/core"
	"github.com/petal-labs/wit/session"
)

func (a *App) newIntentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "intents [id]",
		Short: "List intents, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(s *session.Session) (*core.Result, error) {
				if len(args) == 1 {
					return s.Intent(cmd.Context(), args[0])
				}
				return s.Intents(cmd.Context())
			})
		},
	}
}
