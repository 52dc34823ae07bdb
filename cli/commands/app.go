// Package commands implements the wit command tree using Cobra.
package commands

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/petal-labs/wit/cli/config"
	"github.com/petal-labs/wit/cli/keystore"
	"github.com/petal-labs/wit/core"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ClientFactory creates a core client from the resolved connection settings.
type ClientFactory func(cfg core.Config, opts ...core.Option) (*core.Client, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command
	v    *viper.Viper

	loadConfig  ConfigLoader
	newClient   ClientFactory
	newKeystore KeystoreFactory
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	logger      *zap.Logger

	cfgFile    string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithClientFactory injects a client factory dependency.
func WithClientFactory(factory ClientFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newClient = factory
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// WithLogger injects the logger used instead of the --verbose default.
func WithLogger(l *zap.Logger) AppOption {
	return func(a *App) {
		a.logger = l
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		v:           viper.New(),
		loadConfig:  config.LoadConfig,
		newClient:   core.NewClientWithConfig,
		newKeystore: keystore.NewKeystore,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wit",
		Short: "wit - command-line client for the Wit.ai API",
		Long: `wit talks to the Wit.ai natural language API.

Use wit to understand messages and speech, inspect intents, and manage
entities with their values and expressions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	// Global flags available to all commands.
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ~/.wit/config.yaml)")
	pf.String("token", "", "API token (default: $WIT_AI_TOKEN, then the keystore)")
	pf.String("address", core.DefaultAddress, "API host name")
	pf.Int("port", core.DefaultPort, "API port")
	pf.Bool("no-tls", false, "use plain HTTP")
	pf.Bool("insecure", false, "skip server certificate verification")
	pf.String("ca-file", "", "PEM bundle used to verify the server")
	pf.Duration("timeout", core.DefaultTimeout, "connect and read timeout")
	pf.Int("retry-limit", core.DefaultRetryLimit, "retries after a transport failure")
	pf.String("proxy", "", "HTTP proxy as host:port")
	pf.String("proxy-user", "", "proxy user name")
	pf.String("proxy-pass", "", "proxy password")
	pf.String("api-version", "", "API version date sent as the v parameter")
	pf.BoolVar(&a.jsonOutput, "json", false, "emit compact JSON output")
	pf.BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newMessageCommand())
	root.AddCommand(a.newIntentsCommand())
	root.AddCommand(a.newEntitiesCommand())
	root.AddCommand(a.newValuesCommand())
	root.AddCommand(a.newExpressionsCommand())
	root.AddCommand(a.newRequestCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command. Errors carry an exit code.
func (a *App) Execute() error {
	return a.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the root command with explicit arguments.
func (a *App) ExecuteArgs(args []string) error {
	a.root.SetArgs(args)
	err := a.root.Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err == nil {
		return nil
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitWithCode(ExitValidation, err)
	}
	return err
}

func (a *App) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.DefaultConfigPath()
}

// initConfig loads the config file and layers it under env and flags:
// flag > WIT_* env > config file > built-in default.
func (a *App) initConfig() error {
	cfg, err := a.loadConfig(a.configPath())
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger == nil {
		a.logger = zap.NewNop()
		if a.verbose {
			if l, err := zap.NewDevelopment(); err == nil {
				a.logger = l
			}
		}
	}

	v := a.v
	v.SetEnvPrefix("WIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("token", "WIT_AI_TOKEN"); err != nil {
		return err
	}

	if cfg.Address != "" {
		v.SetDefault("address", cfg.Address)
	}
	if cfg.Port != 0 {
		v.SetDefault("port", cfg.Port)
	}
	if cfg.TLS != nil {
		v.SetDefault("no-tls", !*cfg.TLS)
	}
	if cfg.VerifyPeer != nil {
		v.SetDefault("insecure", !*cfg.VerifyPeer)
	}
	if cfg.CAFile != "" {
		v.SetDefault("ca-file", cfg.CAFile)
	}
	if cfg.Timeout > 0 {
		v.SetDefault("timeout", cfg.Timeout)
	}
	if cfg.RetryLimit != nil {
		v.SetDefault("retry-limit", *cfg.RetryLimit)
	}
	if cfg.Proxy != nil && cfg.Proxy.Address != "" {
		v.SetDefault("proxy", net.JoinHostPort(cfg.Proxy.Address, strconv.Itoa(cfg.Proxy.Port)))
		v.SetDefault("proxy-user", cfg.Proxy.User)
	}
	if cfg.APIVersion != "" {
		v.SetDefault("api-version", cfg.APIVersion)
	}

	return v.BindPFlags(a.root.PersistentFlags())
}

// coreConfig resolves the connection settings from flags, env and file.
func (a *App) coreConfig() (core.Config, error) {
	v := a.v
	cfg := core.DefaultConfig()
	cfg.Address = v.GetString("address")
	cfg.Port = v.GetInt("port")
	cfg.UseTLS = !v.GetBool("no-tls")
	cfg.VerifyPeer = !v.GetBool("insecure")
	cfg.CAFile = v.GetString("ca-file")
	cfg.RetryLimit = v.GetInt("retry-limit")

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = core.DefaultTimeout
	}
	cfg.ConnectTimeout = timeout
	cfg.ReadTimeout = timeout

	if p := v.GetString("proxy"); p != "" {
		host, portStr, err := net.SplitHostPort(p)
		if err != nil {
			return cfg, fmt.Errorf("%w: --proxy %q: %v", core.ErrConfig, p, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return cfg, fmt.Errorf("%w: --proxy port %q", core.ErrConfig, portStr)
		}
		cfg.Proxy = &core.ProxyConfig{
			Address:  host,
			Port:     port,
			User:     v.GetString("proxy-user"),
			Password: v.GetString("proxy-pass"),
		}
	}

	token, err := a.resolveToken()
	if err != nil {
		return cfg, err
	}
	cfg.Token = token
	return cfg, nil
}

// resolveToken applies the precedence flag > WIT_AI_TOKEN > keystore.
func (a *App) resolveToken() (string, error) {
	if t := strings.TrimSpace(a.v.GetString("token")); t != "" {
		return t, nil
	}

	name := a.cfg.TokenName()
	ks, err := a.newKeystore()
	if err != nil {
		return "", fmt.Errorf("failed to open keystore: %w", err)
	}
	token, err := ks.Get(name)
	if err != nil {
		var nf *keystore.ErrKeyNotFound
		if errors.As(err, &nf) {
			return "", fmt.Errorf("%w: no token found: pass --token, set WIT_AI_TOKEN, or run 'wit keys set %s'", core.ErrUnauthorized, name)
		}
		return "", fmt.Errorf("failed to read token %q: %w", name, err)
	}
	return token, nil
}
