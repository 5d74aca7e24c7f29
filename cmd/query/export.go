package query

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Quidge/webfeatures/internal/index"
	"github.com/Quidge/webfeatures/internal/manifest"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the indexed build back out as a manifest",
	Long: `Rebuild WEB_FEATURES_MANIFEST.json from the index.

Without --output the manifest is printed to stdout.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write the manifest to this path")
}

func runExport(cmd *cobra.Command, _ []string) error {
	db, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := db.LatestBuild()
	if errors.Is(err, index.ErrNoBuild) {
		return fmt.Errorf("index is empty (run webfeatures build --index)")
	}
	if err != nil {
		return err
	}

	fm, err := db.Export()
	if err != nil {
		return err
	}
	m := manifest.New(fm, b.URLBase)

	if exportOutput != "" {
		if err := manifest.Write(exportOutput, m); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d features to %s\n", fm.Len(), exportOutput)
		return nil
	}

	data, err := manifest.Encode(m)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
