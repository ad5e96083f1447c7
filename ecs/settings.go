package ecs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrUnknownComponent is returned when a component type name does not resolve
// through the registry.
var ErrUnknownComponent = errors.New("ecs: unknown component")

// Settings configures a World and the loop driving it.
type Settings struct {
	// FixedTimestep is the step length of FixedUpdate in Run.
	FixedTimestep time.Duration `toml:"fixed_timestep" yaml:"fixed_timestep"`
	// MaxFixedSteps caps FixedUpdate steps per tick so a slow frame cannot
	// spiral.
	MaxFixedSteps int `toml:"max_fixed_steps" yaml:"max_fixed_steps"`
	// TickInterval is the default Run interval.
	TickInterval time.Duration   `toml:"tick_interval" yaml:"tick_interval"`
	Logging      LoggingSettings `toml:"logging" yaml:"logging"`
	Nodes        []NodeSettings  `toml:"nodes" yaml:"nodes"`
}

type LoggingSettings struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
	// Output is a file path for log entries; empty means stderr.
	Output string `toml:"output" yaml:"output"`
}

// NodeSettings describes a node spawned by World.SpawnNodes. Components are
// component type names as known to the registry; they are added with their
// zero value.
type NodeSettings struct {
	Name       string   `toml:"name" yaml:"name"`
	Parent     string   `toml:"parent" yaml:"parent"`
	Components []string `toml:"components" yaml:"components"`
	Disabled   bool     `toml:"disabled" yaml:"disabled"`
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		FixedTimestep: time.Second / 50,
		MaxFixedSteps: 5,
		TickInterval:  time.Second / 60,
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadSettings reads settings from a .toml, .yaml or .yml file. Values absent
// from the file keep their defaults.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	settings := DefaultSettings()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &settings)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &settings)
	default:
		return nil, fmt.Errorf("settings %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	return &settings, nil
}

// Validate checks the values that Run depends on.
func (s *Settings) Validate() error {
	if s.FixedTimestep <= 0 {
		return fmt.Errorf("fixed_timestep must be positive, got %s", s.FixedTimestep)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", s.TickInterval)
	}
	if s.MaxFixedSteps < 1 {
		return fmt.Errorf("max_fixed_steps must be at least 1, got %d", s.MaxFixedSteps)
	}
	return nil
}

// SpawnNodes creates nodes from settings in order. A Parent names a node
// spawned earlier in the same call; an empty Parent means the world root.
// Nothing is spawned if any component or parent name fails to resolve.
func (w *World) SpawnNodes(specs ...NodeSettings) ([]*Node, error) {
	builders := make([]*NodeBuilder, len(specs))
	parents := make([]int, len(specs))
	byName := make(map[string]int, len(specs))

	for i, spec := range specs {
		b := w.NewBuilder().Named(spec.Name)
		for _, name := range spec.Components {
			t, ok := w.registry.TypeByName(name)
			if !ok {
				return nil, fmt.Errorf("node %q: %w %q", spec.Name, ErrUnknownComponent, name)
			}
			b.WithDefault(t)
		}
		if spec.Disabled {
			b.Disabled()
		}
		parents[i] = -1
		if spec.Parent != "" {
			parent, ok := byName[spec.Parent]
			if !ok {
				return nil, fmt.Errorf("node %q: unknown parent %q", spec.Name, spec.Parent)
			}
			parents[i] = parent
		}
		if spec.Name != "" {
			byName[spec.Name] = i
		}
		builders[i] = b
	}

	nodes := make([]*Node, len(specs))
	for i, b := range builders {
		if parents[i] >= 0 {
			b.ChildOf(nodes[parents[i]])
		}
		nodes[i] = b.Build()
	}
	return nodes, nil
}
