package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/template"
	"github.com/canvas-infra/patterns/internal/workspace"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format is a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Unmarshal decodes data in the given format into v.
func Unmarshal(data []byte, format Format, v any) error {
	switch format {
	case JSON:
		return json.Unmarshal(data, v)
	case YAML:
		return yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func decodeFile[T any](path string) (*T, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var v T
	if err := Unmarshal(data, format, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &v, nil
}

// DecodePattern reads a pattern file.
func DecodePattern(path string) (*pattern.Pattern, error) {
	return decodeFile[pattern.Pattern](path)
}

// DecodeTemplate reads a template file.
func DecodeTemplate(path string) (*template.Template, error) {
	return decodeFile[template.Template](path)
}

// DecodeWorkspace reads a workspace state file.
func DecodeWorkspace(path string) (*workspace.State, error) {
	return decodeFile[workspace.State](path)
}

// Bundle is the content of a library directory.
type Bundle struct {
	Patterns  []*pattern.Pattern
	Templates []template.Template
}

// LoadDir decodes every JSON and YAML file directly under dir. Documents
// carrying componentTemplates are templates; everything else is a pattern.
// Files are read in name order.
func LoadDir(dir string) (Bundle, error) {
	var b Bundle
	entries, err := os.ReadDir(dir)
	if err != nil {
		return b, fmt.Errorf("read library %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatOf(e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		isTemplate, err := looksLikeTemplate(path)
		if err != nil {
			return b, err
		}
		if isTemplate {
			t, err := DecodeTemplate(path)
			if err != nil {
				return b, err
			}
			b.Templates = append(b.Templates, *t)
			continue
		}
		p, err := DecodePattern(path)
		if err != nil {
			return b, err
		}
		b.Patterns = append(b.Patterns, p)
	}
	return b, nil
}

func looksLikeTemplate(path string) (bool, error) {
	doc, err := decodeFile[map[string]any](path)
	if err != nil {
		return false, err
	}
	_, ok := (*doc)["componentTemplates"]
	return ok, nil
}
