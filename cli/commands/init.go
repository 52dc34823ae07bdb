package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/wit/cli/config"
	"github.com/petal-labs/wit/core"
)

type initOptions struct {
	Address    string
	Port       int
	TokenRef   string
	APIVersion string
	Timeout    time.Duration
	Force      bool
}

func (a *App) newInitCommand() *cobra.Command {
	opts := initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a starter config file to ~/.wit/config.yaml, or to --config.

The global --address, --port, --timeout and --api-version flags are
written to the file. The file names the keystore entry holding your token;
store the token afterwards with 'wit keys set'.

Example:
  wit init
  wit init --api-version 20240101 --token-ref my-app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Address = a.v.GetString("address")
			opts.Port = a.v.GetInt("port")
			opts.APIVersion = a.v.GetString("api-version")
			opts.Timeout = a.v.GetDuration("timeout")

			path := a.configPath()
			if err := writeStarterConfig(path, opts); err != nil {
				return a.handleError(err)
			}

			fmt.Fprintf(a.stdout, "Created %s\n\n", path)
			fmt.Fprintln(a.stdout, "Next steps:")
			fmt.Fprintf(a.stdout, "  wit keys set %s\n", opts.TokenRef)
			fmt.Fprintln(a.stdout, `  wit message send "hello"`)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.TokenRef, "token-ref", config.DefaultTokenRef, "keystore entry holding the token")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing file")
	return cmd
}

var tokenRefPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

func validateTokenRef(name string) error {
	if name == "" {
		return fmt.Errorf("%w: token ref cannot be empty", core.ErrConfig)
	}
	if !tokenRefPattern.MatchString(name) {
		return fmt.Errorf("%w: invalid token ref %q: must start with a letter and contain only letters, numbers, dots, underscores, and hyphens", core.ErrConfig, name)
	}
	return nil
}

var apiVersionPattern = regexp.MustCompile(`^\d{8}$`)

func validateAPIVersion(v string) error {
	if v == "" {
		return nil
	}
	if !apiVersionPattern.MatchString(v) {
		return fmt.Errorf("%w: invalid API version %q: expected YYYYMMDD", core.ErrConfig, v)
	}
	return nil
}

// writeStarterConfig renders the starter file and checks it loads back.
func writeStarterConfig(path string, opts initOptions) error {
	if err := validateTokenRef(opts.TokenRef); err != nil {
		return err
	}
	if err := validateAPIVersion(opts.APIVersion); err != nil {
		return err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = core.DefaultTimeout
	}
	if opts.Address == "" || opts.Port <= 0 || opts.Port > 65535 {
		return fmt.Errorf("%w: invalid server %s:%d", core.ErrConfig, opts.Address, opts.Port)
	}

	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s already exists (use --force to overwrite)", core.ErrConfig, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := generateFile(path, configTemplate, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if _, err := config.LoadConfig(path); err != nil {
		return fmt.Errorf("generated config does not load: %w", err)
	}
	return nil
}

func generateFile(path string, tmplContent string, data any) error {
	tmpl, err := template.New("file").Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

// Templates

var configTemplate = `# wit configuration
# Flags and WIT_* environment variables override these values.

address: {{.Address}}
port: {{.Port}}
timeout: {{.Timeout}}
{{- if .APIVersion}}
api_version: "{{.APIVersion}}"
{{- else}}
# api_version: "20240101"
{{- end}}

# Name of the keystore entry holding the API token.
# Store it with 'wit keys set {{.TokenRef}}' or set WIT_AI_TOKEN.
token_ref: {{.TokenRef}}

# tls: true
# verify_peer: true
# ca_file: /etc/ssl/certs/ca-bundle.pem
# retry_limit: 1
# proxy:
#   address: proxy.example.com
#   port: 3128
#   user: alice
`
