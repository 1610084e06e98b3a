package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func init() {
	RegisterCommand(&Command{
		Name:  "replay",
		Short: "Show the host mutations of every scene step",
		Long: `Replay every step of a scene into one root and list the host mutations
each transition caused, followed by the resulting markup.

A step that fails is reported and the replay continues with the next
step. The command fails if any step failed.

Flags:
  --yaml    Print the results as a YAML document`,
		Usage: "vtree replay <scene.yaml> [--yaml]",
		Run:   runReplay,
	})
}

func runReplay(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("scene file is required\n\nUsage: vtree replay <scene.yaml> [--yaml]")
	}
	path := args[0]
	asYAML := false
	for _, arg := range args[1:] {
		switch arg {
		case "--yaml":
			asYAML = true
		default:
			return fmt.Errorf("unknown flag %q", arg)
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

	results := replaySteps(s, len(s.Steps), logger)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if asYAML {
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else {
		for i, r := range results {
			fmt.Fprintf(stdout, "step %d: %s (%d mutations)\n", i, r.Name, len(r.Mutations))
			for _, m := range r.Journal {
				fmt.Fprintf(stdout, "  %s\n", m)
			}
			if r.Err != nil {
				fmt.Fprintf(stdout, "  error: %v\n", r.Err)
			}
			fmt.Fprintf(stdout, "  => %s\n", r.Markup)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return nil
}
