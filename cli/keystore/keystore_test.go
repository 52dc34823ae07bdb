package keystore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

var testKey = StaticMasterKey("test-master-key")

func newTestKeystore(t *testing.T) *FileKeystore {
	t.Helper()
	ks, err := NewFileKeystore(filepath.Join(t.TempDir(), "keys.enc"), testKey)
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}
	return ks
}

func TestFileKeystoreSetAndGet(t *testing.T) {
	ks := newTestKeystore(t)

	if err := ks.Set("default", "WIT-TOKEN-123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := ks.Get("default")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "WIT-TOKEN-123" {
		t.Errorf("Get() = %q, want WIT-TOKEN-123", value)
	}
}

func TestFileKeystoreNotFound(t *testing.T) {
	ks := newTestKeystore(t)

	_, err := ks.Get("nonexistent")
	var nf *ErrKeyNotFound
	if !errors.As(err, &nf) {
		t.Errorf("Get() error = %T, want *ErrKeyNotFound", err)
	}

	err = ks.Delete("nonexistent")
	if !errors.As(err, &nf) {
		t.Errorf("Delete() error = %T, want *ErrKeyNotFound", err)
	}
	if nf.Error() != "key not found: nonexistent" {
		t.Errorf("Error() = %q", nf.Error())
	}
}

func TestFileKeystoreDelete(t *testing.T) {
	ks := newTestKeystore(t)

	if err := ks.Set("staging", "tok"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := ks.Delete("staging"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ks.Get("staging"); err == nil {
		t.Error("Get() should fail after Delete()")
	}
}

func TestFileKeystoreListAndOverwrite(t *testing.T) {
	ks := newTestKeystore(t)

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() on empty keystore returned %d items", len(names))
	}

	for _, kv := range [][2]string{{"prod", "a"}, {"default", "b"}, {"staging", "c"}, {"prod", "d"}} {
		if err := ks.Set(kv[0], kv[1]); err != nil {
			t.Fatalf("Set(%s) error = %v", kv[0], err)
		}
	}

	names, err = ks.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"default", "prod", "staging"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if v, _ := ks.Get("prod"); v != "d" {
		t.Errorf("Get(prod) = %q, want d after overwrite", v)
	}
}

func TestFileKeystorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks1, err := NewFileKeystore(path, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := ks1.Set("default", "persistent"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ks2, err := NewFileKeystore(path, testKey)
	if err != nil {
		t.Fatal(err)
	}
	value, err := ks2.Get("default")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "persistent" {
		t.Errorf("Get() = %q, want persistent", value)
	}
}

func TestFileKeystoreWrongMasterKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")

	ks1, _ := NewFileKeystore(path, testKey)
	if err := ks1.Set("default", "tok"); err != nil {
		t.Fatal(err)
	}

	ks2, _ := NewFileKeystore(path, StaticMasterKey("another-key"))
	if _, err := ks2.Get("default"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() error = %v, want ErrCorrupt", err)
	}
}

func TestFileKeystoreRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")
	if err := os.WriteFile(path, []byte(`{"default":"plain"}`), 0600); err != nil {
		t.Fatal(err)
	}

	ks, _ := NewFileKeystore(path, testKey)
	if _, err := ks.List(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("List() error = %v, want ErrCorrupt", err)
	}
}

func TestFileKeystoreTamperDetected(t *testing.T) {
	ks := newTestKeystore(t)
	if err := ks.Set("default", "tok"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(ks.Path())
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(ks.Path(), data, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := ks.Get("default"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() error = %v, want ErrCorrupt", err)
	}
}

func TestFileKeystoreFileFormat(t *testing.T) {
	ks := newTestKeystore(t)
	secret := "WIT-this-should-be-encrypted"
	if err := ks.Set("default", secret); err != nil {
		t.Fatal(err)
	}

	contents, err := os.ReadFile(ks.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !hasHeader(contents) {
		t.Error("file should start with the keystore header")
	}
	if bytes.Contains(contents, []byte(secret)) {
		t.Error("file contains the plaintext token")
	}

	if runtime.GOOS != "windows" {
		info, _ := os.Stat(ks.Path())
		if mode := info.Mode().Perm(); mode != 0600 {
			t.Errorf("File permissions = %o, want 0600", mode)
		}
	}
}

func TestFileKeystoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "deep", "keys.enc")
	ks, err := NewFileKeystore(path, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := ks.Set("test", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("File not created: %v", err)
	}
}

func TestDefaultKeystorePath(t *testing.T) {
	path := DefaultKeystorePath()

	if filepath.Base(path) != "keys.enc" {
		t.Errorf("DefaultKeystorePath() = %q, should end with keys.enc", path)
	}
	if filepath.Base(filepath.Dir(path)) != ".wit" {
		t.Errorf("DefaultKeystorePath() = %q, should be in .wit directory", path)
	}
}

func TestMasterKeySources(t *testing.T) {
	t.Run("env set", func(t *testing.T) {
		t.Setenv(PassphraseEnvVar, "hunter2")
		src := DefaultMasterKeySource()
		if _, ok := src.(EnvMasterKey); !ok {
			t.Fatalf("DefaultMasterKeySource() = %T, want EnvMasterKey", src)
		}
		key, err := src.GetMasterKey()
		if err != nil || string(key) != "hunter2" {
			t.Errorf("GetMasterKey() = %q, %v", key, err)
		}
	})

	t.Run("env unset falls back to machine", func(t *testing.T) {
		t.Setenv(PassphraseEnvVar, "")
		if _, ok := DefaultMasterKeySource().(MachineMasterKey); !ok {
			t.Error("want MachineMasterKey")
		}
		key, err := MachineMasterKey{}.GetMasterKey()
		if err != nil || len(key) == 0 {
			t.Errorf("GetMasterKey() = %q, %v", key, err)
		}
	})

	t.Run("missing env var", func(t *testing.T) {
		t.Setenv("WIT_TEST_EMPTY", "")
		if _, err := (EnvMasterKey{Var: "WIT_TEST_EMPTY"}).GetMasterKey(); err == nil {
			t.Error("GetMasterKey() should fail when the variable is empty")
		}
		if _, err := NewFileKeystore("x", EnvMasterKey{Var: "WIT_TEST_EMPTY"}); err == nil {
			t.Error("NewFileKeystore() should propagate the source error")
		}
	})

	t.Run("empty static key", func(t *testing.T) {
		if _, err := StaticMasterKey(nil).GetMasterKey(); err == nil {
			t.Error("GetMasterKey() should fail for an empty key")
		}
	})
}
