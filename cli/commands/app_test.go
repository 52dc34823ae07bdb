package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/petal-labs/wit/cli/config"
	"github.com/petal-labs/wit/cli/keystore"
	"github.com/petal-labs/wit/core"
)

// memKeystore is an in-memory keystore.
type memKeystore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemKeystore(pairs ...string) *memKeystore {
	ks := &memKeystore{keys: map[string]string{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		ks.keys[pairs[i]] = pairs[i+1]
	}
	return ks
}

func (m *memKeystore) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[name] = value
	return nil
}

func (m *memKeystore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[name]
	if !ok {
		return "", &keystore.ErrKeyNotFound{Name: name}
	}
	return v, nil
}

func (m *memKeystore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[name]; !ok {
		return &keystore.ErrKeyNotFound{Name: name}
	}
	delete(m.keys, name)
	return nil
}

func (m *memKeystore) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.keys))
	for k := range m.keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

type testApp struct {
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	ks     *memKeystore
}

// newTestApp builds an App with an empty config, an in-memory keystore and
// captured output. Extra options are applied last.
func newTestApp(t *testing.T, stdin io.Reader, cfg *config.Config, opts ...AppOption) *testApp {
	t.Helper()
	t.Setenv("WIT_AI_TOKEN", "")

	if cfg == nil {
		cfg = &config.Config{}
	}
	ta := &testApp{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		ks:     newMemKeystore(),
	}
	base := []AppOption{
		WithIO(stdin, ta.stdout, ta.stderr),
		WithConfigLoader(func(string) (*config.Config, error) { return cfg, nil }),
		WithKeystoreFactory(func() (keystore.Keystore, error) { return ta.ks, nil }),
	}
	ta.app = NewApp(append(base, opts...)...)
	return ta
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("error %v carries no exit code", err)
	}
	return ee.ExitCode()
}

// serverArgs points the CLI at a plain-HTTP test server.
func serverArgs(t *testing.T, srv *httptest.Server) []string {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("SplitHostPort() error = %v", err)
	}
	return []string{"--address", host, "--port", port, "--no-tls"}
}

type captured struct {
	Method string
	Path   string
	Query  string
	Auth   string
	UA     string
	CType  string
	Body   []byte
}

func newRecordingServer(t *testing.T, status int, body string) (*httptest.Server, *[]captured) {
	t.Helper()
	var mu sync.Mutex
	var reqs []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, captured{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			UA:     r.Header.Get("User-Agent"),
			CType:  r.Header.Get("Content-Type"),
			Body:   b,
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

// captureConfig records the resolved client config without making requests.
func captureConfig(dst *core.Config) AppOption {
	return WithClientFactory(func(cfg core.Config, opts ...core.Option) (*core.Client, error) {
		*dst = cfg
		return core.NewClientWithConfig(cfg, opts...)
	})
}

func TestTokenPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		env      string
		tokenRef string
		stored   []string
		want     string
		wantCode int
	}{
		{"flag wins", "flag-token", "env-token", "", []string{"default", "ks-token"}, "flag-token", ExitSuccess},
		{"env over keystore", "", "env-token", "", []string{"default", "ks-token"}, "env-token", ExitSuccess},
		{"keystore default name", "", "", "", []string{"default", "ks-token"}, "ks-token", ExitSuccess},
		{"keystore token ref", "", "", "prod", []string{"default", "ks-token", "prod", "prod-token"}, "prod-token", ExitSuccess},
		{"nothing found", "", "", "", nil, "", ExitUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, reqs := newRecordingServer(t, http.StatusOK, `[]`)

			var got core.Config
			ta := newTestApp(t, nil, &config.Config{TokenRef: tt.tokenRef}, captureConfig(&got))
			ta.ks = newMemKeystore(tt.stored...)
			if tt.env != "" {
				t.Setenv("WIT_AI_TOKEN", tt.env)
			}

			args := serverArgs(t, srv)
			if tt.flag != "" {
				args = append(args, "--token", tt.flag)
			}
			err := ta.app.ExecuteArgs(append(args, "intents"))

			if code := exitCode(t, err); code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (stderr %q)", code, tt.wantCode, ta.stderr.String())
			}
			if tt.wantCode != ExitSuccess {
				if len(*reqs) != 0 {
					t.Errorf("server got %d requests, want none", len(*reqs))
				}
				if !errors.Is(err, core.ErrUnauthorized) {
					t.Errorf("error = %v, want ErrUnauthorized", err)
				}
				return
			}
			if got.Token != tt.want {
				t.Errorf("token = %q, want %q", got.Token, tt.want)
			}
			if len(*reqs) != 1 || (*reqs)[0].Auth != "Bearer "+tt.want {
				t.Errorf("requests = %+v, want one with Bearer %s", *reqs, tt.want)
			}
		})
	}
}

func TestConfigFileLayering(t *testing.T) {
	tlsOff := false
	retries := 4
	cfg := &config.Config{
		Address:    "file.example.com",
		Port:       8443,
		TLS:        &tlsOff,
		Timeout:    5 * time.Second,
		RetryLimit: &retries,
		Proxy:      &config.ProxyConfig{Address: "proxy.local", Port: 3128, User: "alice"},
		APIVersion: "20200101",
	}

	t.Run("file overrides built-in defaults", func(t *testing.T) {
		ta := newTestApp(t, nil, cfg)
		got, err := resolveConfig(ta.app, []string{"--token", "x", "version"})
		if err != nil {
			t.Fatalf("coreConfig() error = %v", err)
		}

		if got.Address != "file.example.com" || got.Port != 8443 {
			t.Errorf("address = %s:%d, want file.example.com:8443", got.Address, got.Port)
		}
		if got.UseTLS {
			t.Error("UseTLS = true, want false from file")
		}
		if got.ConnectTimeout != 5*time.Second || got.ReadTimeout != 5*time.Second {
			t.Errorf("timeouts = %v/%v, want 5s", got.ConnectTimeout, got.ReadTimeout)
		}
		if got.RetryLimit != 4 {
			t.Errorf("RetryLimit = %d, want 4", got.RetryLimit)
		}
		if got.Proxy == nil || got.Proxy.Address != "proxy.local" || got.Proxy.Port != 3128 || got.Proxy.User != "alice" {
			t.Errorf("Proxy = %+v, want proxy.local:3128 as alice", got.Proxy)
		}
		if v := ta.app.v.GetString("api-version"); v != "20200101" {
			t.Errorf("api-version = %q, want 20200101", v)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		ta := newTestApp(t, nil, cfg)
		t.Setenv("WIT_ADDRESS", "env.example.com")
		t.Setenv("WIT_PROXY_PASS", "s3cret")
		got, err := resolveConfig(ta.app, []string{"--token", "x", "version"})
		if err != nil {
			t.Fatalf("coreConfig() error = %v", err)
		}
		if got.Address != "env.example.com" {
			t.Errorf("Address = %q, want env.example.com", got.Address)
		}
		if got.Proxy == nil || got.Proxy.Password != "s3cret" {
			t.Errorf("Proxy = %+v, want password from env", got.Proxy)
		}
	})

	t.Run("flag overrides env", func(t *testing.T) {
		ta := newTestApp(t, nil, cfg)
		t.Setenv("WIT_ADDRESS", "env.example.com")
		got, err := resolveConfig(ta.app, []string{"--token", "x", "--address", "flag.example.com", "--timeout", "2s", "version"})
		if err != nil {
			t.Fatalf("coreConfig() error = %v", err)
		}
		if got.Address != "flag.example.com" {
			t.Errorf("Address = %q, want flag.example.com", got.Address)
		}
		if got.ConnectTimeout != 2*time.Second {
			t.Errorf("ConnectTimeout = %v, want 2s", got.ConnectTimeout)
		}
	})
}

func TestInvalidProxyFlag(t *testing.T) {
	ta := newTestApp(t, nil, nil)
	err := ta.app.ExecuteArgs([]string{"--token", "x", "--proxy", "no-port", "intents"})
	if code := exitCode(t, err); code != ExitValidation {
		t.Errorf("exit code = %d, want %d", code, ExitValidation)
	}
	if !errors.Is(err, core.ErrConfig) {
		t.Errorf("error = %v, want ErrConfig", err)
	}
}

func TestAPIErrorExitCode(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusBadRequest, `{"error":"Bad request","code":"bad-request"}`)

	t.Run("text", func(t *testing.T) {
		ta := newTestApp(t, nil, nil)
		err := ta.app.ExecuteArgs(append(serverArgs(t, srv), "--token", "x", "intents"))
		if code := exitCode(t, err); code != ExitAPI {
			t.Fatalf("exit code = %d, want %d", code, ExitAPI)
		}
		if !strings.HasPrefix(ta.stderr.String(), "Error: ") {
			t.Errorf("stderr = %q, want Error: prefix", ta.stderr.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		ta := newTestApp(t, nil, nil)
		err := ta.app.ExecuteArgs(append(serverArgs(t, srv), "--token", "x", "--json", "intents"))
		if code := exitCode(t, err); code != ExitAPI {
			t.Fatalf("exit code = %d, want %d", code, ExitAPI)
		}
		var out struct {
			Error struct {
				Type   string `json:"type"`
				Status int    `json:"status"`
				Code   string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(ta.stderr.Bytes(), &out); err != nil {
			t.Fatalf("stderr is not JSON: %v (%q)", err, ta.stderr.String())
		}
		if out.Error.Type != "api_error" || out.Error.Status != http.StatusBadRequest || out.Error.Code != "bad-request" {
			t.Errorf("error body = %+v", out.Error)
		}
	})
}

func TestUnauthorizedExitCode(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusUnauthorized, `{"error":"Bad auth"}`)
	ta := newTestApp(t, nil, nil)
	err := ta.app.ExecuteArgs(append(serverArgs(t, srv), "--token", "wrong", "intents"))
	if code := exitCode(t, err); code != ExitUnauthorized {
		t.Errorf("exit code = %d, want %d", code, ExitUnauthorized)
	}
}

func TestNetworkExitCode(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	port := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
	l.Close()

	ta := newTestApp(t, nil, nil)
	err = ta.app.ExecuteArgs([]string{
		"--address", "127.0.0.1", "--port", port, "--no-tls",
		"--token", "x", "--retry-limit", "0", "--timeout", "1s", "intents",
	})
	if code := exitCode(t, err); code != ExitNetwork {
		t.Errorf("exit code = %d, want %d (err %v)", code, ExitNetwork, err)
	}
}

func TestUnknownCommandIsValidationError(t *testing.T) {
	ta := newTestApp(t, nil, nil)
	err := ta.app.ExecuteArgs([]string{"nonsense"})
	if code := exitCode(t, err); code != ExitValidation {
		t.Errorf("exit code = %d, want %d", code, ExitValidation)
	}
	if !strings.Contains(ta.stderr.String(), "Error:") {
		t.Errorf("stderr = %q, want an error line", ta.stderr.String())
	}
}

func TestResultOutput(t *testing.T) {
	tests := []struct {
		name string
		body string
		json bool
		want string
	}{
		{"indented", `{"id":"x"}`, false, "{\n  \"id\": \"x\"\n}\n"},
		{"compact", `{"id":"x"}`, true, "{\"id\":\"x\"}\n"},
		{"empty text", ``, false, "OK\n"},
		{"empty json", ``, true, "null\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newRecordingServer(t, http.StatusOK, tt.body)
			ta := newTestApp(t, nil, nil)
			args := append(serverArgs(t, srv), "--token", "x")
			if tt.json {
				args = append(args, "--json")
			}
			if err := ta.app.ExecuteArgs(append(args, "intents")); err != nil {
				t.Fatalf("ExecuteArgs() error = %v", err)
			}
			if got := ta.stdout.String(); got != tt.want {
				t.Errorf("stdout = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgentAndAPIVersion(t *testing.T) {
	srv, reqs := newRecordingServer(t, http.StatusOK, `[]`)
	ta := newTestApp(t, nil, &config.Config{APIVersion: "20240101"})
	if err := ta.app.ExecuteArgs(append(serverArgs(t, srv), "--token", "x", "intents")); err != nil {
		t.Fatalf("ExecuteArgs() error = %v", err)
	}
	r := (*reqs)[0]
	if r.UA != "wit-cli/"+Version {
		t.Errorf("User-Agent = %q, want wit-cli/%s", r.UA, Version)
	}
	if r.Query != "v=20240101" {
		t.Errorf("query = %q, want v=20240101", r.Query)
	}
}

func TestConfigPath(t *testing.T) {
	ta := newTestApp(t, nil, nil)
	if got := ta.app.configPath(); got != config.DefaultConfigPath() {
		t.Errorf("configPath() = %q, want default", got)
	}
	ta.app.cfgFile = filepath.Join(t.TempDir(), "c.yaml")
	if got := ta.app.configPath(); got != ta.app.cfgFile {
		t.Errorf("configPath() = %q, want %q", got, ta.app.cfgFile)
	}
}

func TestLoadsRealConfigFile(t *testing.T) {
	t.Setenv("WIT_AI_TOKEN", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("address: yaml.example.com\nport: 9000\ntoken_ref: staging\n"), 0600); err != nil {
		t.Fatal(err)
	}

	ks := newMemKeystore("staging", "staging-token")
	a := NewApp(
		WithIO(nil, &bytes.Buffer{}, &bytes.Buffer{}),
		WithKeystoreFactory(func() (keystore.Keystore, error) { return ks, nil }),
	)
	got, err := resolveConfig(a, []string{"--config", path, "version"})
	if err != nil {
		t.Fatalf("coreConfig() error = %v", err)
	}
	if got.Address != "yaml.example.com" || got.Port != 9000 {
		t.Errorf("address = %s:%d, want yaml.example.com:9000", got.Address, got.Port)
	}
	if got.Token != "staging-token" {
		t.Errorf("Token = %q, want staging-token", got.Token)
	}
}

// resolveConfig parses args through the root command, then resolves the
// client config the way API commands do.
func resolveConfig(a *App, args []string) (core.Config, error) {
	if err := a.ExecuteArgs(args); err != nil {
		return core.Config{}, err
	}
	return a.coreConfig()
}
