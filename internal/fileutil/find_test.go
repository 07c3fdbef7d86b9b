package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	ierrors "github.com/FocuswithJustin/ibycus/core/errors"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0644); err != nil {
			t.Fatalf("failed to create %s: %v", n, err)
		}
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "authtab.dir", "TLG0012.TXT")

	tests := []struct {
		name string
		want string
	}{
		{"TLG0012.TXT", "TLG0012.TXT"},
		{"AUTHTAB.DIR", "authtab.dir"},
		{"tlg0012.txt", "TLG0012.TXT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Find(dir, tt.name)
			if err != nil {
				t.Fatalf("Find() error: %v", err)
			}
			if filepath.Base(got) != tt.want {
				t.Errorf("Find() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := Find(dir, "TLG9999.IDT"); !errors.Is(err, ierrors.ErrNotFound) {
		t.Errorf("Find(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := Find(filepath.Join(dir, "nope"), "x"); err == nil {
		t.Error("Find() in a missing directory should fail")
	}
}

func TestTexts(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "TLG0012.TXT", "TLG0012.IDT", "tlg0001.txt", "tlg0001.idt", "LAT0474.TXT", "AUTHTAB.DIR", "DOCCAN1.TXT")

	pairs, err := Texts(dir)
	if err != nil {
		t.Fatalf("Texts() error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("Texts() = %+v, want 2 pairs", pairs)
	}
	if pairs[0].ID != "TLG0001" || pairs[1].ID != "TLG0012" {
		t.Errorf("ids = %s, %s", pairs[0].ID, pairs[1].ID)
	}
	if filepath.Base(pairs[0].TXT) != "tlg0001.txt" || filepath.Base(pairs[0].IDT) != "tlg0001.idt" {
		t.Errorf("pair paths = %+v", pairs[0])
	}
}
