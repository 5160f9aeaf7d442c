package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Static is a catalog held in memory.
type Static struct {
	maps []Map
}

func NewStatic(maps []Map) *Static {
	return &Static{maps: maps}
}

func (s *Static) Maps(ctx context.Context) ([]Map, error) {
	if len(s.maps) == 0 {
		return nil, ErrEmptyCatalog
	}
	return slices.Clone(s.maps), nil
}

func (s *Static) Map(ctx context.Context, name string) (*Map, error) {
	if len(s.maps) == 0 {
		return nil, ErrEmptyCatalog
	}
	for _, m := range s.maps {
		if sameName(m.Name, name) {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMapNotFound, name)
}

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf guesses the format of a catalog file from its extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case JSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("unable to decode json catalog: %w", err)
		}
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("unable to decode yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
	return &doc, nil
}

func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatOf(path))
}

// Load reads a catalog file into a [Static] catalog.
func Load(path string) (*Static, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewStatic(doc.Maps), nil
}

//go:embed default.json
var defaultCatalog string

// Default returns the catalog bundled with the binary.
func Default() *Static {
	doc, err := Decode(strings.NewReader(defaultCatalog), JSON)
	if err != nil {
		// bundled file is checked by tests
		panic("bundled catalog is malformed: " + err.Error())
	}
	return NewStatic(doc.Maps)
}
