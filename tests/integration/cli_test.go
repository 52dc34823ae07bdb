//go:build integration

package integration

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLI_MessageSend(t *testing.T) {
	skipIfNoToken(t)
	env := newCLIEnv(t, true)

	result := env.run(t, "--json", "message", "send", "hello", "world")
	if result.ExitCode != 0 {
		t.Fatalf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	var output map[string]any
	if err := json.Unmarshal([]byte(result.Stdout), &output); err != nil {
		t.Fatalf("Output is not valid JSON: %v\nOutput: %s", err, result.Stdout)
	}
	if output["text"] != "hello world" {
		t.Errorf("text = %v, want 'hello world'", output["text"])
	}
}

func TestCLI_TokenFromKeystore(t *testing.T) {
	skipIfNoToken(t)
	env := newCLIEnv(t, false)

	set := env.runWithStdin(t, getToken(t)+"\n", "keys", "set")
	if set.ExitCode != 0 {
		t.Fatalf("keys set exit code = %d\nStderr: %s", set.ExitCode, set.Stderr)
	}

	list := env.run(t, "keys", "list")
	if strings.TrimSpace(list.Stdout) != "default" {
		t.Errorf("keys list = %q, want 'default'", list.Stdout)
	}

	result := env.run(t, "intents")
	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
}

func TestCLI_NoToken(t *testing.T) {
	env := newCLIEnv(t, false)

	result := env.run(t, "intents")
	if result.ExitCode != 4 {
		t.Errorf("Exit code = %d, want 4\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stderr, "WIT_AI_TOKEN") {
		t.Errorf("Stderr should explain where the token comes from, got: %s", result.Stderr)
	}
}

func TestCLI_BadToken(t *testing.T) {
	env := newCLIEnv(t, false)

	result := env.run(t, "--token", "definitely-not-a-token", "intents")
	if result.ExitCode != 4 {
		t.Errorf("Exit code = %d, want 4\nStderr: %s", result.ExitCode, result.Stderr)
	}
}

func TestCLI_Init(t *testing.T) {
	env := newCLIEnv(t, false)

	result := env.run(t, "init", "--token-ref", "it")
	if result.ExitCode != 0 {
		t.Fatalf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
	want := filepath.Join(env.home, ".wit", "config.yaml")
	if !strings.Contains(result.Stdout, want) {
		t.Errorf("Stdout = %q, want it to name %s", result.Stdout, want)
	}

	again := env.run(t, "init")
	if again.ExitCode != 1 {
		t.Errorf("second init exit code = %d, want 1", again.ExitCode)
	}
}

func TestCLI_Version(t *testing.T) {
	env := newCLIEnv(t, false)

	result := env.run(t, "version", "--json")
	if result.ExitCode != 0 {
		t.Fatalf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(result.Stdout), &v); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if v["version"] == "" {
		t.Error("version field is empty")
	}
}
