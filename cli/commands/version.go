package commands

import (
	"encoding/json"
	"fmt"
	"net"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
)

// Build information for the wit CLI, set at link time:
//
//	go build -ldflags "-X github.com/petal-labs/wit/cli/commands.Version=v1.0.0" ./cli/cmd/wit
var (
	// Version is the semantic version of the CLI. It is also sent to the API
	// in the User-Agent header.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date when the binary was built.
	BuildDate = "unknown"
)

// userAgent identifies CLI requests to the Wit API.
func userAgent() string {
	return "wit-cli/" + Version
}

type versionInfo struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
	UserAgent  string `json:"userAgent"`
	Endpoint   string `json:"endpoint"`
	APIVersion string `json:"apiVersion,omitempty"`
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the CLI build, the User-Agent it sends, and the API endpoint and
version the current settings resolve to.`,
		Run: func(cmd *cobra.Command, args []string) {
			info := versionInfo{
				Version:    Version,
				Commit:     Commit,
				BuildDate:  BuildDate,
				GoVersion:  runtime.Version(),
				Platform:   runtime.GOOS + "/" + runtime.GOARCH,
				UserAgent:  userAgent(),
				Endpoint:   net.JoinHostPort(a.v.GetString("address"), strconv.Itoa(a.v.GetInt("port"))),
				APIVersion: a.v.GetString("api-version"),
			}

			if a.jsonOutput {
				_ = json.NewEncoder(a.stdout).Encode(info)
				return
			}

			apiVersion := info.APIVersion
			if apiVersion == "" {
				apiVersion = "latest"
			}
			fmt.Fprintf(a.stdout, "wit %s\n", info.Version)
			fmt.Fprintf(a.stdout, "  commit:      %s\n", info.Commit)
			fmt.Fprintf(a.stdout, "  built:       %s\n", info.BuildDate)
			fmt.Fprintf(a.stdout, "  go version:  %s\n", info.GoVersion)
			fmt.Fprintf(a.stdout, "  platform:    %s\n", info.Platform)
			fmt.Fprintf(a.stdout, "  user agent:  %s\n", info.UserAgent)
			fmt.Fprintf(a.stdout, "  endpoint:    %s\n", info.Endpoint)
			fmt.Fprintf(a.stdout, "  api version: %s\n", apiVersion)
		},
	}
}
