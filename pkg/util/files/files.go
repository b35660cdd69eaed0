package files

import (
	"fmt"
	"os"
)

func Exists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	} else if os.IsNotExist(err) {
		return false, nil
	} else {
		return false, fmt.Errorf("Failed to determine if %s exists: %w", path, err)
	}
}

// WriteIfNotExists writes contents to path unless the file is already there.
// Returns true if the file was written.
func WriteIfNotExists(path string, contents []byte, perm os.FileMode) (bool, error) {
	exists, err := Exists(path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return true, os.WriteFile(path, contents, perm)
}
