// Package query provides the `webfeatures query` command group for reading
// the SQLite index written by `webfeatures build --index`.
package query

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Quidge/webfeatures/internal/config"
	"github.com/Quidge/webfeatures/internal/index"
	"github.com/Quidge/webfeatures/internal/pathutil"
)

// Cmd is the parent command for index queries.
var Cmd = &cobra.Command{
	Use:   "query",
	Short: "Query the manifest index",
	Long: `Query the SQLite index of the last build.

The index path comes from --index, or index_path in the global
configuration. Build it with "webfeatures build --index PATH".`,
}

var indexFlag string

func init() {
	Cmd.PersistentFlags().StringVar(&indexFlag, "index", "", "index database path")

	Cmd.AddCommand(featuresCmd)
	Cmd.AddCommand(testsCmd)
	Cmd.AddCommand(featuresOfCmd)
	Cmd.AddCommand(infoCmd)
	Cmd.AddCommand(exportCmd)
}

// openIndex opens the configured index. It refuses to create a new one.
func openIndex(cmd *cobra.Command) (*index.DB, error) {
	path := indexFlag
	if path == "" {
		configPath, _ := cmd.Flags().GetString("config")
		global, err := config.LoadGlobalConfig(configPath)
		if err != nil {
			return nil, err
		}
		path = global.IndexPath
	}
	if path == "" {
		return nil, fmt.Errorf("no index configured (use --index or set index_path)")
	}

	expanded, err := config.ExpandPath(config.ExpandEnvVars(path))
	if err != nil {
		return nil, err
	}
	if !pathutil.Exists(expanded) {
		return nil, fmt.Errorf("index %s does not exist (run webfeatures build --index %s)", expanded, path)
	}

	db, err := index.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return db, nil
}
