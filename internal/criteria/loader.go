package criteria

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// LoadFromPath reads a question set file (YAML or JSON) and validates it.
// Format is detected by extension, falling back to content sniffing.
func LoadFromPath(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question set: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a question set from bytes. ext is a format hint (".json",
// ".yaml", ".yml"); empty means detect from content.
func Load(data []byte, ext string) (*Set, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		ext = ".json"
	}

	var s Set
	if ext == ".json" {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse question set json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse question set yaml: %w", err)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
