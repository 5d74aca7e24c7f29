package query

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var featuresOfCmd = &cobra.Command{
	Use:   "features-of TEST",
	Short: "List the features a test is associated with",
	Long: `List the features a test is associated with. TEST is the
repository-relative path, as it appears in the manifest.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeaturesOf,
}

func runFeaturesOf(cmd *cobra.Command, args []string) error {
	test := strings.TrimPrefix(args[0], "/")

	db, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	features, err := db.FeaturesForTest(test)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(features) == 0 {
		fmt.Fprintf(out, "No features associated with %s.\n", test)
		return nil
	}
	for _, f := range features {
		fmt.Fprintln(out, featureColor.Sprint(f))
	}
	return nil
}
