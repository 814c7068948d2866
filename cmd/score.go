package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"thoreinstein.com/flightcheck/pkg/alignment"
)

var scoreJSON bool

// scoreCmd recomputes the weighted breakdown of a saved check result.
var scoreCmd = &cobra.Command{
	Use:   "score <result.json>",
	Short: "Show the weighted score breakdown of a saved check",
	Long: `Show the step, feature and file level scores of a result written by
'flightcheck check --output', and the status each score maps to.

The overall score weights the step level 0.4, the mean feature score 0.4 and
the found/expected file ratio 0.2. Scores of 0.9 and above are aligned, 0.5
and above partial.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScore(args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the breakdown as JSON")
}

func runScore(path string, out io.Writer) error {
	report, err := readReport(path)
	if err != nil {
		return err
	}

	r := report.Result.AlignmentResult
	if scoreJSON {
		return encodeJSON(out, alignment.GetBreakdown(r))
	}
	printBreakdown(out, r)
	return nil
}
