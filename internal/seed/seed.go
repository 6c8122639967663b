// Package seed holds the fixture collections used when nothing has been
// stored under a key yet. Fixtures are YAML documents embedded at build time.
package seed

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixtures embed.FS

// Load decodes fixtures/<name>.yaml into a slice of T.
func Load[T any](name string) ([]T, error) {
	raw, err := fixtures.ReadFile(path.Join("fixtures", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", name, err)
	}
	var items []T
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("seed: decode %s: %w", name, err)
	}
	return items, nil
}

// Func adapts Load to collection.Options.Seed. It panics on a bad fixture.
func Func[T any](name string) func() []T {
	return func() []T {
		items, err := Load[T](name)
		if err != nil {
			panic(err)
		}
		return items
	}
}

// Names lists the embedded fixtures without extension.
func Names() []string {
	entries, err := fs.ReadDir(fixtures, "fixtures")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}
