// Package catalog resolves map names to the shape layouts ("modes") a round
// can be played on.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vancomm/shapesweeper/internal/mines"
)

var (
	ErrEmptyCatalog = errors.New("catalog is empty")
	ErrMapNotFound  = errors.New("map not found")
	ErrNoModes      = errors.New("no modes available for this map")
)

// Mode is one alternate shape of a map. Grid holds 0/1 markers, 1 being a
// playable cell; rows may have different lengths.
type Mode struct {
	Index int     `json:"mode" yaml:"mode"`
	Grid  [][]int `json:"grid" yaml:"grid"`
}

func (m Mode) Layout() mines.Layout {
	return mines.NewLayout(m.Grid)
}

type Map struct {
	Name  string `json:"name" yaml:"name"`
	Img   string `json:"img,omitempty" yaml:"img,omitempty"`
	Modes []Mode `json:"modes" yaml:"modes"`
}

// Document is the on-disk shape of a catalog file.
type Document struct {
	Maps []Map `json:"maps" yaml:"maps"`
}

type Catalog interface {
	// Maps lists every map in gallery order.
	Maps(ctx context.Context) ([]Map, error)
	// Map finds a map by name, ignoring case.
	Map(ctx context.Context, name string) (*Map, error)
}

// Modes returns the modes of the named map, failing with [ErrMapNotFound],
// [ErrEmptyCatalog] or [ErrNoModes].
func Modes(ctx context.Context, c Catalog, name string) ([]Mode, error) {
	m, err := c.Map(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(m.Modes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoModes, m.Name)
	}
	return m.Modes, nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Problem describes something wrong with a catalog entry.
type Problem struct {
	Map  string
	Mode int // -1 for map-level problems
	Err  error
}

func (p Problem) Error() string {
	if p.Mode < 0 {
		return fmt.Sprintf("map %q: %s", p.Map, p.Err)
	}
	return fmt.Sprintf("map %q mode %d: %s", p.Map, p.Mode, p.Err)
}

func (p Problem) Unwrap() error {
	return p.Err
}

var errNoName = errors.New("map has no name")

// Validate reports maps that could never be played: unnamed maps, maps
// without modes and modes without a single valid cell.
func Validate(maps []Map) []Problem {
	var problems []Problem
	seen := make(map[string]bool)
	for _, m := range maps {
		if strings.TrimSpace(m.Name) == "" {
			problems = append(problems, Problem{Map: m.Name, Mode: -1, Err: errNoName})
			continue
		}
		key := strings.ToLower(strings.TrimSpace(m.Name))
		if seen[key] {
			problems = append(problems, Problem{
				Map: m.Name, Mode: -1, Err: errors.New("duplicate map name"),
			})
		}
		seen[key] = true
		if len(m.Modes) == 0 {
			problems = append(problems, Problem{Map: m.Name, Mode: -1, Err: ErrNoModes})
		}
		for i, mode := range m.Modes {
			if mode.Layout().Size() == 0 {
				problems = append(problems, Problem{Map: m.Name, Mode: i, Err: mines.ErrEmptyLayout})
			}
		}
	}
	return problems
}
