package query

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Quidge/webfeatures/internal/index"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the build the index was filled from",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, _ []string) error {
	db, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := db.LatestBuild()
	if errors.Is(err, index.ErrNoBuild) {
		fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded.")
		return nil
	}
	if err != nil {
		return err
	}

	revision := b.Revision
	if revision == "" {
		revision = "-"
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Index:\t%s\n", db.Path())
	fmt.Fprintf(w, "Build:\t%d\n", b.ID)
	fmt.Fprintf(w, "Repository:\t%s\n", b.RepoRoot)
	fmt.Fprintf(w, "Revision:\t%s\n", revision)
	fmt.Fprintf(w, "URL base:\t%s\n", b.URLBase)
	fmt.Fprintf(w, "Features:\t%d\n", b.Features)
	fmt.Fprintf(w, "Tests:\t%d\n", b.Tests)
	fmt.Fprintf(w, "Created:\t%s\n", b.CreatedAt.Local().Format(time.RFC1123))
	return w.Flush()
}
