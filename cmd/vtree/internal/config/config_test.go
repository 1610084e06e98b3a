package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/go-drift/vtree/pkg/scene"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "widgets")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	r, err := Resolve(dir)
	if err != nil {
		t.Fatal(err)
	}
	if r.ProjectName != "widgets" {
		t.Errorf("expected project name from directory, got %q", r.ProjectName)
	}
	if r.ModulePath != "" {
		t.Errorf("expected no module path, got %q", r.ModulePath)
	}
	if r.LogLevel != hclog.Info {
		t.Errorf("expected info level, got %v", r.LogLevel)
	}
	if r.SceneSchema != scene.SupportedSchema {
		t.Errorf("expected schema %s, got %s", scene.SupportedSchema, r.SceneSchema)
	}
}

func TestResolveModuleName(t *testing.T) {
	tests := []struct {
		module string
		want   string
	}{
		{"example.com/ui/cards", "cards"},
		{"example.com/ui/cards/v2", "cards"},
		{"cards", "cards"},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "go.mod", "module "+tt.module+"\n\ngo 1.24\n")

			r, err := Resolve(dir)
			if err != nil {
				t.Fatal(err)
			}
			if r.ModulePath != tt.module {
				t.Errorf("ModulePath = %q, want %q", r.ModulePath, tt.module)
			}
			if r.ProjectName != tt.want {
				t.Errorf("ProjectName = %q, want %q", r.ProjectName, tt.want)
			}
		})
	}
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
project:
  name: gallery
log:
  level: debug
  json: true
  verbose_errors: true
scene:
  schema: v1.0.0
`)

	r, err := Resolve(dir)
	if err != nil {
		t.Fatal(err)
	}
	if r.ProjectName != "gallery" || r.LogLevel != hclog.Debug || !r.LogJSON || !r.VerboseErrors || r.SceneSchema != "v1.0.0" {
		t.Errorf("unexpected resolved config %+v", r)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad yaml", FileName, "log: [unterminated"},
		{"bad level", FileName, "log: {level: loud}"},
		{"bad schema", FileName, "scene: {schema: latest}"},
		{"newer schema", FileName, "scene: {schema: v9.0.0}"},
		{"empty go.mod", "go.mod", "go 1.24\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)
			if _, err := Resolve(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, "project: {name: x}\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	got, err := FindProjectRoot()
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(root)
	got, _ = filepath.EvalSymlinks(got)
	if got != want {
		t.Errorf("FindProjectRoot() = %q, want %q", got, want)
	}
}
