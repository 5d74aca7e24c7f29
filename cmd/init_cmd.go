package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Quidge/webfeatures/internal/declaration"
	"github.com/Quidge/webfeatures/internal/pathutil"
)

var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Create a WEB_FEATURES.yml template",
	Long: `Create a WEB_FEATURES.yml template in DIR (default: the current directory).

The template includes commented examples of recursive and pattern-based
feature declarations.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "overwrite existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

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

	path := filepath.Join(dir, declaration.Filename)

	if !force && pathutil.Exists(path) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(declaration.Template), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", declaration.Filename, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
