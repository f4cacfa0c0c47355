package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sequent/internal/dag"
)

// Unit is one discovered proof source file with its frontmatter applied.
type Unit struct {
	Path    string
	Name    string
	Imports []string
	Source  string
}

// Discover walks root for .sq files and parses each one's frontmatter.
// Results are ordered by path; import ordering happens in Order.
func Discover(root string) ([]*Unit, error) {
	var units []*Unit
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".sq") {
			return nil
		}
		unit, err := load(path)
		if err != nil {
			return err
		}
		units = append(units, unit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}

func load(path string) (*Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fm, err := ExtractFrontmatter(string(content))
	if err != nil {
		if fe, ok := err.(*FrontmatterParseError); ok {
			fe.File = path
		}
		if ue, ok := err.(*UnknownFieldError); ok {
			ue.File = path
		}
		return nil, err
	}
	fm.Config.ApplyDefaults(filepath.Base(path))
	return &Unit{
		Path:    path,
		Name:    fm.Config.Name,
		Imports: fm.Config.Imports,
		Source:  fm.Source,
	}, nil
}

// Order sorts units so every unit follows the units it imports. Imports
// naming no discovered unit, duplicate unit names, and import cycles are
// errors; proof files cannot be mutually dependent.
func Order(units []*Unit) ([]*Unit, error) {
	byName := make(map[string]*Unit, len(units))
	g := dag.NewGraph()
	for _, u := range units {
		if prev, ok := byName[u.Name]; ok {
			return nil, fmt.Errorf("duplicate unit name %q: %s and %s", u.Name, prev.Path, u.Path)
		}
		byName[u.Name] = u
		g.AddNode(u.Name, u)
	}
	for _, u := range units {
		for _, imp := range u.Imports {
			if _, ok := byName[imp]; !ok {
				return nil, fmt.Errorf("%s: import %q not found", u.Path, imp)
			}
			if err := g.AddEdge(imp, u.Name); err != nil {
				return nil, err
			}
		}
	}

	if cycles := g.Cycles(); len(cycles) > 0 {
		return nil, fmt.Errorf("import cycle: %s", strings.Join(cycles[0], " -> "))
	}
	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	out := make([]*Unit, 0, len(units))
	for _, node := range sorted {
		out = append(out, node.Data.(*Unit))
	}
	return out, nil
}
