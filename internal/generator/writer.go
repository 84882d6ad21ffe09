package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteNodes serializes nodes as a JSON array at path, creating parent
// directories as needed. The output is the input format of "graphctl import".
func WriteNodes(nodes []map[string]any, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(nodes); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
