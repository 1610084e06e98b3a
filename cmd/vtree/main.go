// Command vtree renders and replays YAML scene documents against the vtree
// reconciler and reports the host mutations every step costs.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/vtree/cmd/vtree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
