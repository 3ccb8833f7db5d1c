package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindConfigFile walks up from the working directory looking for a file
// called name. It stops at the user's home directory and returns an empty
// string when nothing is found.
func FindConfigFile(name string) (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	for {
		candidate := filepath.Join(currentDir, name)
		fileInfo, err := os.Stat(candidate)
		if err == nil {
			if !fileInfo.IsDir() {
				return candidate, nil
			}
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking for %s at %s: %w", name, currentDir, err)
		}

		if currentDir == homeDir {
			return "", nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
