package config

import (
	"errors"
	"fmt"
	"os"
)

// BackupConfig copies the config file at path to path+".bak", replacing any
// earlier backup. It returns the backup path, or "" when there was nothing to back up.
func BackupConfig(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config file: %w", err)
	}

	backupPath := path + ".bak"
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	return backupPath, nil
}
