package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pybale/pkg/classify"
)

// registryCommand creates the registry inspection command.
func (c *CLI) registryCommand() *cobra.Command {
	var contains string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the embedded standard-library registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := classify.LoadRegistry()
			if err != nil {
				return err
			}

			if contains != "" {
				if registry.Contains(contains) {
					printSuccess("%s is in the Python %s standard library", contains, registry.Version())
				} else {
					printInfo("%s is not in the Python %s standard library", contains, registry.Version())
				}
				return nil
			}

			printKeyValue("version", registry.Version())
			printKeyValue("modules", fmt.Sprintf("%d", registry.Count()))
			return nil
		},
	}

	cmd.Flags().StringVar(&contains, "contains", "", "check whether a module name is in the registry")

	return cmd
}
