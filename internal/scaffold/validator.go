package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/pentaboard/internal/config"
)

// CheckExisting returns an error if dir already has a config file.
func CheckExisting(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, config.DefaultPath)); err == nil {
		return fmt.Errorf("already initialized\n\nFound existing: %s\n\nUse 'pentaboard init --force' to overwrite it", config.DefaultPath)
	}
	return nil
}
