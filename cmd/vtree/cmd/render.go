package cmd

import (
	"fmt"
	"strings"
)

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Print the markup of a scene step",
		Long: `Render a scene and print the resulting markup.

Steps are rendered in order into one root so that the printed markup is
the result of reconciling every earlier step. Without --step the last
step is printed.`,
		Usage: "vtree render <scene.yaml> [--step N | --step NAME]",
		Run:   runRender,
	})
}

func runRender(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("scene file is required\n\nUsage: vtree render <scene.yaml> [--step N]")
	}
	path := args[0]
	step := ""
	for i := 1; i < len(args); i++ {
		switch {
		case args[i] == "--step":
			if i+1 >= len(args) {
				return fmt.Errorf("--step requires a step index or name")
			}
			step = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--step="):
			step = strings.TrimPrefix(args[i], "--step=")
		default:
			return fmt.Errorf("unknown flag %q", args[i])
		}
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	s, err := loadScene(path, cfg)
	if err != nil {
		return err
	}

	index := len(s.Steps) - 1
	if step != "" {
		if index, err = stepIndex(s.Steps, step); err != nil {
			return err
		}
	}

	logger.Debug("rendering scene", "scene", path, "step", index)
	results := replaySteps(s, index+1, logger)
	last := results[len(results)-1]
	if last.Err != nil {
		return fmt.Errorf("step %q: %w", last.Name, last.Err)
	}
	fmt.Fprintln(stdout, last.Markup)
	return nil
}
