package cmd

import (
	"fmt"
)

func init() {
	RegisterCommand(&Command{
		Name:  "check",
		Short: "Validate scene documents",
		Long: `Decode and validate scene documents without rendering them.

Every file is checked for unknown fields, a readable schema version,
well-formed nodes, and references to declared components.`,
		Usage: "vtree check <scene.yaml>...",
		Run:   runCheck,
	})
}

func runCheck(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one scene file is required\n\nUsage: vtree check <scene.yaml>...")
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range args {
		s, err := loadScene(path, cfg)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "FAIL %s: %v\n", path, err)
			continue
		}
		logger.Debug("scene ok", "scene", path, "schema", s.Schema, "steps", len(s.Steps))
		fmt.Fprintf(stdout, "ok   %s (%d components, %d steps)\n", path, len(s.Components), len(s.Steps))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenes failed validation", failed, len(args))
	}
	return nil
}
