package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAssertGolden(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	os.MkdirAll("testdata", 0o755)

	goldenContent := "✓ Signed in as dev@tryforce.dev\n"
	os.WriteFile("testdata/signin.golden", []byte(goldenContent), 0o644)

	t.Run("matching content passes", func(t *testing.T) {
		mockT := &testing.T{}
		AssertGolden(mockT, goldenContent, "signin.golden")

		if mockT.Failed() {
			t.Error("AssertGolden should pass when content matches")
		}
	})

	t.Run("golden path resolves", func(t *testing.T) {
		path := GoldenPath("signin.golden")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("GoldenPath should return valid path, got %s", path)
		}
	})
}

func TestReadGolden(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	os.MkdirAll("testdata", 0o755)
	os.WriteFile("testdata/read.golden", []byte("api.url = http://localhost:8000"), 0o644)

	t.Run("reads existing file", func(t *testing.T) {
		got := ReadGolden(t, "read.golden")
		if got != "api.url = http://localhost:8000" {
			t.Errorf("ReadGolden() = %q, want %q", got, "api.url = http://localhost:8000")
		}
	})

	t.Run("returns empty for missing file", func(t *testing.T) {
		got := ReadGolden(t, "nonexistent.golden")
		if got != "" {
			t.Errorf("ReadGolden() for missing file = %q, want empty", got)
		}
	})
}

func TestGoldenPath(t *testing.T) {
	got := GoldenPath("studio.golden")

	want := filepath.Join("testdata", "studio.golden")
	if got != want {
		t.Errorf("GoldenPath() = %q, want %q", got, want)
	}
}
