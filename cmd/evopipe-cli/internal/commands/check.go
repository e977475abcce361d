package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/evopipe/pkg/config"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
)

func NewCheckConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config <file>",
		Short: "Validate a YAML operator configuration file",
		Long: `Parse a YAML operator configuration, expand its hyperparameter ranges,
and build the typed operator registry from it. Any structural problem
(malformed domains, unknown capabilities, a space with no estimator) is
reported the same way a search run would report it, without running anything.`,
		Example: `  evopipe-cli check-config operators.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.Load(args[0])
			if err != nil {
				return err
			}
			defs, err := file.OperatorDefs()
			if err != nil {
				return err
			}
			reg, err := gp.NewRegistry(defs)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Printf("%s is valid\n", args[0])
			fmt.Printf("  %d operators, generations=%d population=%d seed=%d\n",
				len(reg.Operators()), file.Search.Generations,
				file.Search.PopulationSize, file.Search.Seed)
			return nil
		},
	}
}
