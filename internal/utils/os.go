package utils

import (
	"os"
	"path/filepath"
)

const defaultName = "tap-pad"

// ExecutableName returns the base name the binary was built as, used in
// help text and error messages
func ExecutableName() string {
	executable, err := os.Executable()
	if err != nil || executable == "" {
		return defaultName
	}
	return filepath.Base(executable)
}

