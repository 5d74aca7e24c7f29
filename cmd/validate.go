package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Quidge/webfeatures/internal/associator"
	"github.com/Quidge/webfeatures/internal/config"
	"github.com/Quidge/webfeatures/internal/declaration"
	"github.com/Quidge/webfeatures/internal/featuremap"
	"github.com/Quidge/webfeatures/internal/pathutil"
	"github.com/Quidge/webfeatures/internal/sourcefile"
	"github.com/Quidge/webfeatures/internal/walker"
)

var validateCmd = &cobra.Command{
	Use:   "validate [DIR]",
	Short: "Check every WEB_FEATURES.yml below a directory",
	Long: `Load every WEB_FEATURES.yml below DIR (default: the current directory)
and report all malformed declarations instead of stopping at the first one.
Directories excluded from builds, by the global configuration or by
DIR/.webfeatures.yaml, are skipped.

Exits non-zero if any declaration is invalid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// collectingLoader records load failures and lets the walk continue past
// them.
type collectingLoader struct {
	loader declaration.Loader
	found  int
	errs   []error
}

func (l *collectingLoader) Load(dir string) (*declaration.File, error) {
	decl, err := l.loader.Load(dir)
	if err != nil {
		l.errs = append(l.errs, err)
		return nil, nil
	}
	if decl != nil {
		l.found++
	}
	return decl, nil
}

// declarationsOnly reports no files, so validation never reads test content.
type declarationsOnly struct{}

func (declarationsOnly) Classify(string, string, string, []os.DirEntry) ([]sourcefile.SourceFile, error) {
	return nil, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	dir := cwd
	if len(args) == 1 {
		dir = pathutil.ResolveRelative(cwd, args[0])
	}
	if !pathutil.ExistsAndIsDir(dir) {
		return fmt.Errorf("%s is not a directory", dir)
	}

	global, err := config.LoadGlobalConfig(configPath)
	if err != nil {
		return err
	}
	project, err := config.LoadProjectConfig(dir)
	if err != nil {
		return err
	}
	exclude, err := config.Excludes(global, project)
	if err != nil {
		return err
	}

	loader := &collectingLoader{}
	assoc, err := associator.Get("")
	if err != nil {
		return err
	}
	w := walker.New(loader, declarationsOnly{}, assoc)
	w.Logger = logger

	cfg := walker.Config{RepoRoot: dir, Exclude: exclude}
	if err := w.Walk(cmd.Context(), cfg, "", featuremap.New(), walker.NewVisitedSet(), nil); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range loader.errs {
		fmt.Fprintln(out, e)
	}
	if n := len(loader.errs); n > 0 {
		return fmt.Errorf("%d of %d declarations are invalid", n, n+loader.found)
	}
	fmt.Fprintf(out, "%d declarations OK\n", loader.found)
	return nil
}

