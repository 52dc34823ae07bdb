package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestNewSecretTrims(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{"  abc123  ", "abc123"},
		{"abc123\n", "abc123"},
		{"\t\r\n", ""},
	}

	for _, tt := range tests {
		if got := NewSecret(tt.in).Expose(); got != tt.want {
			t.Errorf("NewSecret(%q).Expose() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSecretRedaction(t *testing.T) {
	secret := NewSecret("wit-token-xyz")

	if got := secret.String(); got != "[REDACTED]" {
		t.Errorf("String() = %q, want [REDACTED]", got)
	}
	if got := secret.GoString(); got != "core.Secret{[REDACTED]}" {
		t.Errorf("GoString() = %q", got)
	}
	for _, format := range []string{"%s", "%v", "%+v", "%#v"} {
		if got := fmt.Sprintf(format, secret); strings.Contains(got, "wit-token-xyz") {
			t.Errorf("Sprintf(%q) leaked the token: %s", format, got)
		}
	}
}

func TestSecretInStructMarshal(t *testing.T) {
	type creds struct {
		Name  string `json:"name"`
		Token Secret `json:"token"`
	}

	data, err := json.Marshal(creds{Name: "default", Token: NewSecret("wit-token-xyz")})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"name":"default","token":"[REDACTED]"}`
	if string(data) != want {
		t.Errorf("json.Marshal() = %s, want %s", data, want)
	}

	text, err := NewSecret("wit-token-xyz").MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(text) != "[REDACTED]" {
		t.Errorf("MarshalText() = %s", text)
	}
}

func TestSecretIsEmpty(t *testing.T) {
	if !NewSecret("").IsEmpty() {
		t.Error("empty secret should be empty")
	}
	if !NewSecret("   ").IsEmpty() {
		t.Error("whitespace-only secret should be empty")
	}
	if NewSecret("x").IsEmpty() {
		t.Error("non-empty secret reported empty")
	}
}
