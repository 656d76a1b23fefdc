package threshold

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the threshold configuration as a JSON file. Writes go
// through a temp file and rename so readers never see a partial file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Load() (ConfigMap, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fs.path, err)
	}

	var configs ConfigMap
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fs.path, err)
	}
	return configs, nil
}

func (fs *FileStore) Save(configs ConfigMap) error {
	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode thresholds: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", fs.path, err)
	}
	return nil
}
