//go:build !windows

package filesystem

import (
	"testing"

	"vigcrack/pkg/contract"
)

// TestMapPathInvalidUnix 绝对路径在非扁平模式下非法
func TestMapPathInvalidUnix(t *testing.T) {
	flat := false
	w, _ := New(&Options{OutputDir: t.TempDir(), Flat: &flat})
	for _, id := range []string{"/abs", "..", ".", "../x"} {
		if _, err := w.mapPath(contract.ArtifactID(id)); err != contract.ErrPathInvalid {
			t.Fatalf("id %s expect invalid", id)
		}
	}
	w, _ = New(&Options{OutputDir: "/out"})
	if p, err := w.mapPath("/abs/c.key"); err != nil || p != "/out/c.key" {
		t.Fatalf("flat mapPath: %q %v", p, err)
	}
}
