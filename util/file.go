package util

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SaveJson writes data as JSON to path, creating the parent directories
// when they do not exist yet.
func SaveJson(path string, data interface{}) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	_, err = file.Write(bs)
	return err
}

// EnsureDir creates dir (and parents) if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
