package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestMemStoreSections(t *testing.T) {
	ms := NewMemStore()

	if ms.HasSection("benchhost/plugins") {
		t.Error("HasSection() = true for missing section")
	}

	if err := ms.AddSection("benchhost/plugins"); err != nil {
		t.Fatalf("AddSection() error = %v", err)
	}
	if !ms.HasSection("benchhost/plugins") {
		t.Error("HasSection() = false after AddSection()")
	}

	if err := ms.AddSection("benchhost/plugins"); !errors.Is(err, ErrSectionExists) {
		t.Errorf("AddSection() twice error = %v, want ErrSectionExists", err)
	}
}

func TestMemStoreGetBool(t *testing.T) {
	ms := NewMemStore()
	if err := ms.Set("s", "enabled", "True"); err != nil {
		t.Fatal(err)
	}
	if err := ms.Set("s", "disabled", "False"); err != nil {
		t.Fatal(err)
	}
	if err := ms.Set("s", "junk", "maybe"); err != nil {
		t.Fatal(err)
	}

	got, err := ms.GetBool("s", "enabled")
	if err != nil || !got {
		t.Errorf("GetBool(enabled) = %v, %v, want true, nil", got, err)
	}
	got, err = ms.GetBool("s", "disabled")
	if err != nil || got {
		t.Errorf("GetBool(disabled) = %v, %v, want false, nil", got, err)
	}
	if _, err := ms.GetBool("s", "junk"); err == nil {
		t.Error("GetBool(junk) error = nil, want parse error")
	}
	if _, err := ms.GetBool("s", "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("GetBool(missing) error = %v, want ErrKeyNotFound", err)
	}
	if _, err := ms.GetBool("nope", "enabled"); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("GetBool(missing section) error = %v, want ErrSectionNotFound", err)
	}
}

func TestMemStoreItemsSorted(t *testing.T) {
	ms := NewMemStore()
	for _, k := range []string{"zeta", "alpha", "mid"} {
		if err := ms.Set("s", k, "True"); err != nil {
			t.Fatal(err)
		}
	}

	items, err := ms.Items("s")
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(items) != len(want) {
		t.Fatalf("Items() returned %d entries, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.Key != want[i] {
			t.Errorf("Items()[%d].Key = %q, want %q", i, item.Key, want[i])
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchhost.toml")

	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	if err := fs.Set("benchhost/plugins", "general", "True"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := fs.Set("benchhost/plugins", "experimental", "False"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Every Set is durable, so a fresh open must see both keys.
	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() reopen error = %v", err)
	}
	if !reopened.HasSection("benchhost/plugins") {
		t.Fatal("reopened store lost section")
	}
	got, err := reopened.GetBool("benchhost/plugins", "general")
	if err != nil || !got {
		t.Errorf("GetBool(general) = %v, %v, want true, nil", got, err)
	}
	got, err = reopened.GetBool("benchhost/plugins", "experimental")
	if err != nil || got {
		t.Errorf("GetBool(experimental) = %v, %v, want false, nil", got, err)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	if fs.HasSection("anything") {
		t.Error("new store should have no sections")
	}
}

func TestFormatBool(t *testing.T) {
	if FormatBool(true) != "True" {
		t.Errorf("FormatBool(true) = %q", FormatBool(true))
	}
	if FormatBool(false) != "False" {
		t.Errorf("FormatBool(false) = %q", FormatBool(false))
	}
}
