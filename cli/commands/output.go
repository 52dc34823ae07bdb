package commands

import (
	"encoding/json"
	"fmt"

	"github.com/petal-labs/wit/core"
)

// printResult writes the result value as indented JSON, or compact JSON
// with --json. An empty result prints OK in text mode.
func (a *App) printResult(res *core.Result) error {
	if res == nil || res.Value() == nil {
		if a.jsonOutput {
			fmt.Fprintln(a.stdout, "null")
			return nil
		}
		fmt.Fprintln(a.stdout, "OK")
		return nil
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetEscapeHTML(false)
	if !a.jsonOutput {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}
