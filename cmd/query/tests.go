package query

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Quidge/webfeatures/internal/index"
)

var testsCmd = &cobra.Command{
	Use:   "tests FEATURE",
	Short: "List the tests associated with a feature",
	Args:  cobra.ExactArgs(1),
	RunE:  runTests,
}

func runTests(cmd *cobra.Command, args []string) error {
	feature := args[0]

	db, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	tests, err := db.TestsForFeature(feature)
	if err != nil {
		if errors.Is(err, index.ErrFeatureNotFound) {
			known, listErr := db.ListFeatures()
			if listErr != nil {
				return err
			}
			return FormatFeatureNotFound(feature, known)
		}
		return err
	}

	out := cmd.OutOrStdout()
	for _, t := range tests {
		fmt.Fprintln(out, t)
	}
	return nil
}
