package testing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/vtree/pkg/host"
)

// UpdateSnapshotsEnv is the environment variable that makes MatchesFile
// rewrite golden files instead of comparing against them.
const UpdateSnapshotsEnv = "VTREE_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the host tree and the mutations of the last render.
type Snapshot struct {
	Markup    string      `yaml:"markup"`
	Tree      []*HostNode `yaml:"tree,omitempty"`
	Mutations []string    `yaml:"mutations,omitempty"`
}

// HostNode is a serialized host node. Text nodes carry only Text.
type HostNode struct {
	Tag      string            `yaml:"tag,omitempty"`
	Text     string            `yaml:"text,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Children []*HostNode       `yaml:"children,omitempty"`
}

// CaptureSnapshot captures the container's children and the journal.
func (t *Tester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{Markup: t.Markup(), Mutations: t.Journal()}
	for _, c := range t.container.ChildNodes() {
		snap.Tree = append(snap.Tree, captureHostNode(c))
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When VTREE_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s (-expected +actual)\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a diff between other (expected) and this snapshot. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	return cmp.Diff(other, s, cmpopts.EquateEmpty())
}

func captureHostNode(n host.Node) *HostNode {
	if n.Kind() == host.TextNode {
		return &HostNode{Text: n.Data()}
	}
	node := &HostNode{Tag: n.Tag()}
	for _, attr := range n.Attributes() {
		if node.Attrs == nil {
			node.Attrs = make(map[string]string)
		}
		node.Attrs[attr.Name] = serializeAttr(attr.Value)
	}
	for _, c := range n.ChildNodes() {
		node.Children = append(node.Children, captureHostNode(c))
	}
	return node
}

// serializeAttr renders handlers as "func" so snapshots stay stable.
func serializeAttr(v any) string {
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
		return "func"
	}
	return fmt.Sprint(v)
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot YAML: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
