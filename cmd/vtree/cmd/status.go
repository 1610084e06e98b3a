package cmd

import (
	"fmt"

	"github.com/go-drift/vtree/pkg/scene"
)

func init() {
	RegisterCommand(&Command{
		Name:  "status",
		Short: "Show resolved project configuration",
		Long: `Show the configuration vtree resolved for the current project.

The project root is the nearest directory holding vtree.yaml or go.mod,
or the directory given with --dir.`,
		Usage: "vtree status",
		Run:   runStatus,
	})
}

func runStatus(args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Project: %s\n", cfg.ProjectName)
	fmt.Fprintf(stdout, "Root:    %s\n", cfg.Root)
	if cfg.ModulePath != "" {
		fmt.Fprintf(stdout, "Module:  %s\n", cfg.ModulePath)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Log level:       %s\n", cfg.LogLevel)
	fmt.Fprintf(stdout, "Log JSON:        %t\n", cfg.LogJSON)
	fmt.Fprintf(stdout, "Verbose errors:  %t\n", cfg.VerboseErrors)
	fmt.Fprintf(stdout, "Scene schema:    %s (reader supports %s)\n", cfg.SceneSchema, scene.SupportedSchema)
	return nil
}
