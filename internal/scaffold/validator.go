package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/ember/internal/config"
)

// CheckExisting returns an error if dir already holds a spark.yml
func CheckExisting(dir string) error {
	path := filepath.Join(dir, config.FileName)
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	if info.IsDir() {
		return fmt.Errorf("%s exists and is a directory", path)
	}

	return fmt.Errorf("device already initialized\n\nFound existing: %s\n\nUse 'ember init --force' to reinitialize (this will overwrite existing configuration)", config.FileName)
}
