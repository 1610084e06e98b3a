package cmd

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"golang.org/x/mod/semver"

	"github.com/go-drift/vtree/cmd/vtree/internal/config"
	"github.com/go-drift/vtree/pkg/scene"
)

// loadScene reads a scene and rejects schemas newer than the project pins.
func loadScene(path string, cfg *config.Resolved) (*scene.Scene, error) {
	s, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	if semver.Compare(s.Schema, cfg.SceneSchema) > 0 {
		return nil, fmt.Errorf("%s: schema %s is newer than the project's scene.schema %s", path, s.Schema, cfg.SceneSchema)
	}
	return s, nil
}

// replaySteps replays the first n steps of s.
func replaySteps(s *scene.Scene, n int, logger hclog.Logger) []scene.StepResult {
	sub := *s
	sub.Steps = s.Steps[:n]
	return scene.Replay(&sub, logger.Named("replay"))
}

// stepIndex resolves a step given by index or by name.
func stepIndex(steps []scene.Step, ref string) (int, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 || n >= len(steps) {
			return 0, fmt.Errorf("step %d out of range (scene has %d steps)", n, len(steps))
		}
		return n, nil
	}
	for i, step := range steps {
		if step.Name == ref {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no step named %q", ref)
}
