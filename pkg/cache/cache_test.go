package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/httpsvendor/pkg/errors"
)

func TestSlotName(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"https://cdn.example/lib.mjs", "https_3A_2F_2Fcdn.example_2Flib.mjs.mjs"},
		{"https://cdn.example/a_b.mjs", "https_3A_2F_2Fcdn.example_2Fa__b.mjs.mjs"},
		{"https://cdn.example/x?v=1&y=(2)", "https_3A_2F_2Fcdn.example_2Fx_3Fv_3D1_26y_3D(2).mjs"},
		{"https://cdn.example/~user/*!'", "https_3A_2F_2Fcdn.example_2F~user_2F*!'.mjs"},
		{"https://cdn.example/é", "https_3A_2F_2Fcdn.example_2F_C3_A9.mjs"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := SlotName(tt.href); got != tt.want {
				t.Errorf("SlotName(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestSlotNameDeterministic(t *testing.T) {
	a := SlotName("https://cdn.example/lib.mjs")
	b := SlotName("https://cdn.example/lib.mjs")
	if a != b {
		t.Error("slot name should be deterministic")
	}
	if a == SlotName("https://cdn.example/lib2.mjs") {
		t.Error("different references should produce different slots")
	}
	// "_" doubling keeps an escaped "%2F" distinct from a literal "_2F".
	if SlotName("https://x/_2F") == SlotName("https://x//") {
		t.Error("escape character must not collide with encoded bytes")
	}
}

func TestSlotNameLong(t *testing.T) {
	long := "https://cdn.example/" + strings.Repeat("segment/", 60) + "mod.mjs"
	name := SlotName(long)
	if len(name) > maxSlotName {
		t.Fatalf("len(SlotName) = %d, want <= %d", len(name), maxSlotName)
	}
	if !strings.HasSuffix(name, digest(long)+Suffix) {
		t.Errorf("long slot %q should end with the reference hash", name)
	}
	if name == SlotName(long+"x") {
		t.Error("distinct long references should not collide")
	}
}

func TestDirWriteAndAlias(t *testing.T) {
	ctx := context.Background()
	d, err := Open(filepath.Join(t.TempDir(), "node_modules", ".https"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	oldSlot := d.SlotPath("https://cdn.example/old.mjs")
	newSlot := d.SlotPath("https://cdn.example/new.mjs")

	// A stale regular file from an earlier run must be replaced by the alias.
	if err := d.Write(ctx, oldSlot, []byte("stale")); err != nil {
		t.Fatalf("Write(old) error: %v", err)
	}
	if err := d.Alias(ctx, oldSlot, newSlot); err != nil {
		t.Fatalf("Alias() error: %v", err)
	}

	// The alias is dangling until the target is written.
	if _, err := d.RealPath(oldSlot); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("RealPath(dangling) error = %v, want FILE_NOT_FOUND", err)
	}

	if err := d.Write(ctx, newSlot, []byte("export {}")); err != nil {
		t.Fatalf("Write(new) error: %v", err)
	}

	info, err := os.Lstat(oldSlot)
	if err != nil {
		t.Fatalf("Lstat() error: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("old slot should be a symlink")
	}

	got, err := d.RealPath(oldSlot)
	if err != nil {
		t.Fatalf("RealPath() error: %v", err)
	}
	want, _ := d.RealPath(newSlot)
	if got != want {
		t.Errorf("RealPath(old) = %s, want %s", got, want)
	}
}

func TestDirWriteReplacesAlias(t *testing.T) {
	ctx := context.Background()
	d, _ := Open(t.TempDir())

	a := d.SlotPath("https://cdn.example/a.mjs")
	b := d.SlotPath("https://cdn.example/b.mjs")
	_ = d.Write(ctx, b, []byte("b"))
	_ = d.Alias(ctx, a, b)

	// Writing through a slot that was an alias must not touch the old target.
	if err := d.Write(ctx, a, []byte("a")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	data, _ := os.ReadFile(b)
	if string(data) != "b" {
		t.Errorf("alias target was overwritten: %q", data)
	}
	data, _ = os.ReadFile(a)
	if string(data) != "a" {
		t.Errorf("slot content = %q, want %q", data, "a")
	}
}

func TestDirAliasMissingStaleFile(t *testing.T) {
	d, _ := Open(t.TempDir())
	slot := d.SlotPath("https://cdn.example/never-written.mjs")
	if err := d.Alias(context.Background(), slot, d.SlotPath("https://cdn.example/t.mjs")); err != nil {
		t.Errorf("Alias() with no stale file should succeed, got %v", err)
	}
}

func TestDirClear(t *testing.T) {
	ctx := context.Background()
	d, _ := Open(t.TempDir())

	_ = d.Write(ctx, d.SlotPath("https://a/1.mjs"), []byte("1"))
	_ = d.Write(ctx, d.SlotPath("https://a/2.mjs"), []byte("2"))
	_ = d.Alias(ctx, d.SlotPath("https://a/3.mjs"), d.SlotPath("https://a/2.mjs"))
	_ = os.WriteFile(filepath.Join(d.Path(), "README"), []byte("keep"), 0o644)

	n, err := d.Clear()
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() removed %d, want 3", n)
	}
	if _, err := os.Stat(filepath.Join(d.Path(), "README")); err != nil {
		t.Error("Clear() should leave non-module files alone")
	}
}

func TestRelativeTo(t *testing.T) {
	root := t.TempDir()
	d, _ := Open(filepath.Join(root, "node_modules", ".https"))
	slot := d.SlotPath("https://cdn.example/lib.mjs")
	_ = d.Write(context.Background(), slot, []byte("x"))

	resolved, err := d.RealPath(slot)
	if err != nil {
		t.Fatalf("RealPath() error: %v", err)
	}
	got, err := RelativeTo(root, resolved)
	if err != nil {
		t.Fatalf("RelativeTo() error: %v", err)
	}
	want := "./node_modules/.https/" + SlotName("https://cdn.example/lib.mjs")
	if got != want {
		t.Errorf("RelativeTo() = %q, want %q", got, want)
	}
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "node_modules"), 0o755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "src", "app")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	t.Run("finds ancestor with node_modules", func(t *testing.T) {
		layout, err := Locate(sub)
		if err != nil {
			t.Fatalf("Locate() error: %v", err)
		}
		if layout.Root != root {
			t.Errorf("Root = %s, want %s", layout.Root, root)
		}
		if want := filepath.Join(root, "node_modules", ".https"); layout.Cache != want {
			t.Errorf("Cache = %s, want %s", layout.Cache, want)
		}
	})

	t.Run("inside node_modules falls back to cwd", func(t *testing.T) {
		inside := filepath.Join(root, "node_modules")
		layout, err := Locate(inside)
		if err != nil {
			t.Fatalf("Locate() error: %v", err)
		}
		if layout.Root != inside {
			t.Errorf("Root = %s, want %s", layout.Root, inside)
		}
	})
}
