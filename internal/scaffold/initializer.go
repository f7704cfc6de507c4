package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/pentaboard/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes a commented pentaboard.yml into dir.
// If force is true, an existing config file is replaced.
func Initialize(dir string, force bool) ([]string, error) {
	if force {
		if err := handleForce(dir); err != nil {
			return nil, err
		}
	}

	files, err := getTemplateFiles(dir)
	if err != nil {
		return nil, err
	}

	if err := writeFiles(files); err != nil {
		return nil, err
	}

	if err := validateCreatedFiles(dir); err != nil {
		return nil, err
	}

	created := make([]string, len(files))
	for i, f := range files {
		created[i] = f.Path
	}
	return created, nil
}

// handleForce removes an existing config file
func handleForce(dir string) error {
	path := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultPath, err)
		}
	}
	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles(dir string) ([]FileInfo, error) {
	cfg, err := templatesFS.ReadFile("templates/pentaboard.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read %s template: %w", config.DefaultPath, err)
	}

	return []FileInfo{{
		Path:        filepath.Join(dir, config.DefaultPath),
		Content:     cfg,
		Permissions: 0644,
	}}, nil
}

// writeFiles writes all template files to disk
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles loads the written config through the normal loader
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, config.DefaultPath)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultPath, err)
	}
	return nil
}
