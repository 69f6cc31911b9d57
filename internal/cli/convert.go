package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/features"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/logistic"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/treeio"
)

// convertCommand creates the convert command for logistic models.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output       string
		featuresPath string
	)

	cmd := &cobra.Command{
		Use:   "convert [model.json]",
		Short: "Convert a trained logistic-regression model to a decision tree",
		Long: `Convert a trained logistic-regression model to a decision tree.

The model JSON carries the feature split order, the one-hot vocabulary
("feature=value" tokens mapped to weight indices), the weight vector and
intercept, a base bid, and optional bucket bounds for range features.
The output tree bids sigmoid(intercept + path weights) * base_bid at
each leaf and can be compiled with 'compile'.

Feature declarations (floors, ceilings, integer casts, condition kinds)
default to the stock library; pass --features to override them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(args[0], output, featuresPath)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "tree.json", "output tree file")
	cmd.Flags().StringVar(&featuresPath, "features", "", "TOML feature declaration file")

	return cmd
}

func (c *CLI) runConvert(input, output, featuresPath string) error {
	model, err := logistic.LoadModel(input)
	if err != nil {
		return fmt.Errorf("load model %s: %w", input, err)
	}

	lib := features.Default()
	if featuresPath != "" {
		if lib, err = features.Load(featuresPath); err != nil {
			return fmt.Errorf("load features %s: %w", featuresPath, err)
		}
	}

	p := newProgress(c.Logger)
	t, err := logistic.NewConverter(lib).Convert(model)
	if err != nil {
		return fmt.Errorf("convert %s: %w", input, err)
	}
	p.done("Converted model")

	if err := treeio.ExportJSON(t, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Converted %s", input)
	printFile(output)
	printStats(t.NodeCount(), t.Depth(), false)
	printNextStep("Compile it", fmt.Sprintf("bonspy compile %s", output))
	return nil
}
