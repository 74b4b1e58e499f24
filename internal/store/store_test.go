package store

import (
	"os"
	"path/filepath"
	"testing"
)

// TestSaveLoad_RoundTrip verifies saving and loading preserves values.
func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "values.json")
	var in Values
	in.Set(1, 64)
	in.Set(59, 127)

	if err := Save(path, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := out.Sorted(); len(got) != 2 || got[0] != 1 || got[1] != 59 {
		t.Fatalf("unexpected controllers %v", got)
	}
	if v, _ := out.Get(59); v != 127 {
		t.Fatalf("expected 127, got %d", v)
	}
}

// TestLoad_MissingFile_ReturnsEmpty verifies missing files return zero data.
func TestLoad_MissingFile_ReturnsEmpty(t *testing.T) {
	out, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(out.Controllers) != 0 {
		t.Fatalf("expected empty values, got %+v", out)
	}
}

// TestLoad_RejectsOutOfRange verifies values above 127 are refused.
func TestLoad_RejectsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.json")
	if err := os.WriteFile(path, []byte(`{"controllers":{"3":200}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected range error")
	}
}

// TestRecorder_FlushOnlyWhenDirty verifies unchanged values are not rewritten.
func TestRecorder_FlushOnlyWhenDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.json")
	var initial Values
	initial.Set(2, 10)
	r := NewRecorder(path, initial, nil)

	r.SendValueChanged(2, 10)
	if err := r.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("unchanged values must not be written")
	}

	r.SendValueChanged(2, 11)
	if err := r.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := out.Get(2); v != 11 {
		t.Fatalf("expected 11 on disk, got %d", v)
	}
	if v, _ := initial.Get(2); v != 10 {
		t.Fatalf("recorder must not alias the initial values")
	}
}
