package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/pipeline"
)

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "compile [tree.json]",
		Short: "Compile a decision tree to a Bonsai program",
		Long: `Compile a decision tree to a Bonsai program.

The input is a JSON tree file (see 'convert' for producing one from a
trained model). The tree is validated against the structural contract
before compilation: one root, one fallback branch per split, terminal
leaves. The emitted program is deterministic; compiling the same tree
twice yields byte-identical output.

Results are cached locally keyed by the tree's content hash.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompile(cmd.Context(), args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runCompile executes the pipeline and writes the program.
func (c *CLI) runCompile(ctx context.Context, input, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, pipeline.Options{InputPath: input})
	if err != nil {
		return fmt.Errorf("compile %s: %w", input, err)
	}
	p.done("Compiled program")

	if output == "" {
		fmt.Print(result.Program)
		return nil
	}

	if err := os.WriteFile(output, []byte(result.Program), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Compiled %s", input)
	printFile(output)
	printStats(result.Stats.NodeCount, result.Stats.Depth, result.CacheInfo.ProgramHit)
	printKeyValue("graph hash", result.GraphHash[:12])
	return nil
}
