package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/wit/core"
	"github.com/petal-labs/wit/session"
)

func (a *App) newRequestCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send a raw API request",
		Long: `Send a request to any API path, for endpoints without a dedicated command.
The method is one of GET, PUT, POST or DELETE. The configured API version is
added as the v parameter unless the path already sets it.

Example:
  wit request GET /apps
  wit request POST /utterances --data @utterances.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := core.ParseMethod(strings.ToUpper(args[0]))
			if err != nil {
				return a.handleError(fmt.Errorf("%w: %v", core.ErrConfig, err))
			}

			var payload any
			if data != "" {
				body, err := a.readData(data)
				if err != nil {
					return a.handleError(err)
				}
				payload = body
			}

			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.Do(cmd.Context(), method, args[1], payload)
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body, @file to read a file, or - for stdin")
	return cmd
}

// readData resolves a --data value to a JSON body.
func (a *App) readData(data string) (json.RawMessage, error) {
	var raw []byte
	var err error
	switch {
	case data == "-":
		raw, err = io.ReadAll(a.stdin)
	case strings.HasPrefix(data, "@"):
		raw, err = os.ReadFile(data[1:])
	default:
		raw = []byte(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfig, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: --data is not valid JSON", core.ErrConfig)
	}
	return json.RawMessage(raw), nil
}
