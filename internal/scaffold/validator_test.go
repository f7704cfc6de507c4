package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dyluth/pentaboard/internal/config"
)

func TestCheckExisting(t *testing.T) {
	t.Run("no existing config", func(t *testing.T) {
		if err := CheckExisting(t.TempDir()); err != nil {
			t.Errorf("CheckExisting() error = %v", err)
		}
	})

	t.Run("existing config", func(t *testing.T) {
		tmpDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(tmpDir, config.DefaultPath), []byte("version: '1.0'"), 0644); err != nil {
			t.Fatal(err)
		}

		err := CheckExisting(tmpDir)
		if err == nil {
			t.Fatal("CheckExisting() expected error")
		}
		if !strings.Contains(err.Error(), config.DefaultPath) || !strings.Contains(err.Error(), "--force") {
			t.Errorf("unexpected error message: %v", err)
		}
	})
}
