package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/treeio"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [tree.json]",
		Short: "Check a decision tree against the structural contract",
		Long: `Check a decision tree against the structural contract.

A valid tree has exactly one root, at least one conditional branch and
exactly one fallback branch per split, terminal leaves, and no nodes
unreachable from the root. Compilation enforces the same contract; this
command reports the first violation without producing a program.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			t, err := treeio.ImportJSON(input)
			if err != nil {
				return fmt.Errorf("load %s: %w", input, err)
			}
			if err := t.Validate(); err != nil {
				printError("%s is not a valid bidding tree", input)
				printDetail("%v", err)
				return err
			}
			printSuccess("%s is a valid bidding tree", input)
			printStats(t.NodeCount(), t.Depth(), false)
			return nil
		},
	}
}
