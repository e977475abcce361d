package commands

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/evopipe/pkg/config"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

func NewListOperatorsCommand() *cobra.Command {
	var task string
	var configPath string

	cmd := &cobra.Command{
		Use:   "list-operators",
		Short: "List the operators of a search space",
		Long: `Display every operator in the chosen search space with its capability
class, source module, and the size of each hyperparameter domain.

By default this shows the built-in light configuration for the chosen task;
pass --config to inspect a custom YAML operator file instead.`,
		Example: `  # The default classification space
  evopipe-cli list-operators

  # The regression space
  evopipe-cli list-operators --task regressor

  # A custom operator file
  evopipe-cli list-operators --config operators.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := resolveDefs(task, configPath)
			if err != nil {
				return err
			}
			printOperators(defs)
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", "classifier", "task type: classifier or regressor")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML operator configuration file")
	return cmd
}

func resolveDefs(task, configPath string) (map[string]gp.OperatorDef, error) {
	if configPath != "" {
		return loadOperatorDefs(configPath)
	}
	switch task {
	case "classifier":
		return config.ClassifierConfigLight(), nil
	case "regressor":
		return config.RegressorConfigLight(), nil
	default:
		return nil, fmt.Errorf("--task must be classifier or regressor, got %q", task)
	}
}

func printOperators(defs map[string]gp.OperatorDef) {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	bold.Printf("%d operators:\n", len(names))
	for _, name := range names {
		def := defs[name]
		cyan.Printf("  %s", name)
		fmt.Printf("  [%s]", def.Capability)
		if def.Import != "" {
			fmt.Printf("  %s", def.Import)
		}
		fmt.Println()

		params := make([]string, 0, len(def.Params))
		for param := range def.Params {
			params = append(params, param)
		}
		sort.Strings(params)
		for _, param := range params {
			fmt.Printf("      %s: %d values\n", param, len(def.Params[param]))
		}
	}
}
