package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Quidge/webfeatures/internal/build"
	"github.com/Quidge/webfeatures/internal/config"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build WEB_FEATURES_MANIFEST.json",
	Long: `Walk the repository and write the web features manifest.

The repository root defaults to the configured repo_root, then the git
top-level of the current directory, then the current directory itself. The
manifest is only written when the whole walk succeeds; a malformed
WEB_FEATURES.yml anywhere aborts the build.

With --index (or index_path in the config file) the result is also stored
in a SQLite index for "webfeatures query".`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var (
	buildRepoRootFlag    string
	buildURLBaseFlag     string
	buildPathFlag        string
	buildIndexFlag       string
	buildInheritanceFlag string
	buildJobsFlag        int
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildRepoRootFlag, "repo-root", "", "repository root to walk")
	buildCmd.Flags().StringVar(&buildURLBaseFlag, "url-base", "", "URL prefix the repository is served under (default \"/\")")
	buildCmd.Flags().StringVarP(&buildPathFlag, "path", "p", "", "manifest output path (default <repo-root>/WEB_FEATURES_MANIFEST.json)")
	buildCmd.Flags().StringVar(&buildIndexFlag, "index", "", "also write a SQLite index to this path")
	buildCmd.Flags().StringVar(&buildInheritanceFlag, "inheritance", "", "inheritance policy: replace or merge")
	buildCmd.Flags().IntVarP(&buildJobsFlag, "jobs", "j", 0, "parallel walk workers (default 1)")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, config.FlagOverrides{
		RepoRoot:     buildRepoRootFlag,
		URLBase:      buildURLBaseFlag,
		ManifestPath: buildPathFlag,
		IndexPath:    buildIndexFlag,
		Inheritance:  buildInheritanceFlag,
		Jobs:         buildJobsFlag,
	})
	if err != nil {
		return err
	}
	logger.Debug("resolved configuration", "root", cfg.RepoRoot, "url_base", cfg.URLBase, "inheritance", cfg.Inheritance, "jobs", cfg.Jobs)

	result, err := build.RunAndPublish(cmd.Context(), build.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d features to %s\n", result.Features, result.ManifestPath)
	if result.Build != nil {
		fmt.Fprintf(out, "Indexed build %d (%d tests) in %s\n", result.Build.ID, result.Build.Tests, cfg.IndexPath)
	}
	return nil
}
