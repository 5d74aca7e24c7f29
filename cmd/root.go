package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Quidge/webfeatures/cmd/query"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	configPath string
	verbose    bool

	// logger is replaced before every command runs.
	logger = log.New(io.Discard)
)

var rootCmd = &cobra.Command{
	Use:   "webfeatures",
	Short: "Map web platform features to the tests that exercise them",
	Long: `webfeatures walks a test repository, reads the WEB_FEATURES.yml
declarations found along the way and writes WEB_FEATURES_MANIFEST.json, a
mapping from each web feature identifier to the tests associated with it.

Features declared with files: "**" apply to every test below the declaring
directory until a deeper declaration replaces them.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger = newLogger(cmd.ErrOrStderr(), verbose)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger returns the CLI logger. Only warnings and errors are shown unless
// verbose is set.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		Prefix: "webfeatures",
	})
	if verbose {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.WarnLevel)
	}
	return l
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "global config file (default ~/.config/webfeatures/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(query.Cmd)
}
