package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDir is the default directory for rendered reports.
const DefaultDir = ".dealscout/reports"

// Filename returns the base filename for a run's report in the given
// extension, e.g. "lunit-3f2a9c1e.json".
func Filename(rep *Report, ext string) string {
	short := rep.RunID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s.%s", slug(rep.Startup.Name), short, ext)
}

// WriteArtifact marshals v as indented JSON into dir/name, creating dir.
func WriteArtifact(dir, name string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// ReadArtifact reads dir/name and unmarshals it into T. A missing file
// returns nil, nil.
func ReadArtifact[T any](dir, name string) (*T, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return &v, nil
}

// Load reads a JSON report from path.
func Load(path string) (*Report, error) {
	rep, err := ReadArtifact[Report](filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, fmt.Errorf("report %s not found", path)
	}
	return rep, nil
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
			dash = false
		default:
			if !dash && len(out) > 0 {
				out = append(out, '-')
				dash = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "startup"
	}
	return string(out)
}
