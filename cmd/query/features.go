package query

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:     "features",
	Aliases: []string{"ls"},
	Short:   "List indexed features",
	Long: `List every indexed feature with the number of tests associated with
it, in manifest order.`,
	Args: cobra.NoArgs,
	RunE: runFeatures,
}

var featureColor = color.New(color.FgCyan, color.Bold)

func runFeatures(cmd *cobra.Command, _ []string) error {
	db, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	features, err := db.ListFeatures()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(features) == 0 {
		fmt.Fprintln(out, "No features found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FEATURE\tTESTS")
	for _, f := range features {
		fmt.Fprintf(w, "%s\t%d\n", featureColor.Sprint(f.Name), f.Tests)
	}
	return w.Flush()
}
