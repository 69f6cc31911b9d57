package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/pipeline"
)

// visualizeCommand creates the visualize command for rendering diagrams.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		detailed   bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "visualize [tree.json]",
		Short: "Render a decision tree as a diagram",
		Long: `Render a decision tree as a diagram.

Splits are drawn as boxes labeled with their feature, leaves with their
bid, and edges with the condition exactly as the compiler would spell
it, so a diagram reads like the compiled program. Default leaves are
dashed.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVisualize(cmd.Context(), args[0], parseFormats(formatsStr), output, detailed, noCache)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include node IDs in labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runVisualize(ctx context.Context, input string, formats []string, output string, detailed, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		InputPath: input,
		Formats:   formats,
		Detailed:  detailed,
	})
	if err != nil {
		return fmt.Errorf("visualize %s: %w", input, err)
	}
	p.done("Rendered diagram")

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, ".json")
	}

	printSuccess("Visualized %s", input)
	for _, format := range formats {
		path := base
		if len(formats) > 1 || output == "" {
			path = base + "." + format
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.Depth, result.CacheInfo.ProgramHit)
	return nil
}
