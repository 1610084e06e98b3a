package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/vtree/pkg/scene"
)

// FileName is the optional per-project configuration file.
const FileName = "vtree.yaml"

// Config represents the optional vtree.yaml configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Log     LogConfig     `yaml:"log"`
	Scene   SceneConfig   `yaml:"scene"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name string `yaml:"name,omitempty"`
}

// LogConfig controls CLI and reconciler logging.
type LogConfig struct {
	Level         string `yaml:"level,omitempty"`
	JSON          bool   `yaml:"json,omitempty"`
	VerboseErrors bool   `yaml:"verbose_errors,omitempty"`
}

// SceneConfig contains scene settings.
type SceneConfig struct {
	// Schema is the highest scene schema the project writes. It must be
	// readable by this build.
	Schema string `yaml:"schema,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root          string
	ModulePath    string
	ProjectName   string
	LogLevel      hclog.Level
	LogJSON       bool
	VerboseErrors bool
	SceneSchema   string
}

// LoadOptional reads vtree.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads vtree.yaml (if present) and resolves defaults. A go.mod in
// dir is optional; when present its module path names the project.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cfg.Project.Name)
	if name == "" {
		name = defaultProjectName(modulePath, dir)
	}

	levelName := strings.TrimSpace(cfg.Log.Level)
	if levelName == "" {
		levelName = "info"
	}
	level := hclog.LevelFromString(levelName)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error, off", levelName)
	}

	schema := strings.TrimSpace(cfg.Scene.Schema)
	if schema == "" {
		schema = scene.SupportedSchema
	}
	if err := validateSchema(schema); err != nil {
		return nil, err
	}

	return &Resolved{
		Root:          dir,
		ModulePath:    modulePath,
		ProjectName:   name,
		LogLevel:      level,
		LogJSON:       cfg.Log.JSON,
		VerboseErrors: cfg.Log.VerboseErrors,
		SceneSchema:   schema,
	}, nil
}

// FindProjectRoot walks up from the current directory to find vtree.yaml or
// go.mod. Outside of any project it returns the current directory.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// NewLogger builds the CLI logger described by r.
func (r *Resolved) NewLogger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      r.LogLevel,
		JSONFormat: r.LogJSON,
		Output:     os.Stderr,
	})
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultProjectName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		if prefix, _, ok := module.SplitPathVersion(modulePath); ok {
			parts := strings.Split(prefix, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "vtree_project"
	}
	return base
}

func validateSchema(schema string) error {
	if !semver.IsValid(schema) {
		return fmt.Errorf("scene.schema %q is not a semantic version like v1.0.0", schema)
	}
	if err := scene.CheckSchema(schema); err != nil {
		return fmt.Errorf("scene.schema: %w", err)
	}
	return nil
}
