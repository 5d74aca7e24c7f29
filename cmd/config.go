package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Quidge/webfeatures/internal/config"
	"github.com/Quidge/webfeatures/internal/pathutil"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or create configuration",
	Long: `View or create webfeatures configuration.

Subcommands:
  show   Print the effective global configuration
  path   Print the global configuration file path
  init   Write a commented configuration template
  set    Change one global configuration value`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective global configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the global configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented configuration template",
	Long: `Write the global configuration template, or with --project a
.webfeatures.yaml template in the current directory.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one global configuration value",
	Long: `Change one value in the global configuration file, creating the
file when it does not exist.

Keys: ` + strings.Join(config.SettableKeys(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().Bool("project", false, "write .webfeatures.yaml in the current directory")
	configInitCmd.Flags().Bool("force", false, "overwrite existing file")
}

func globalConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GlobalConfigPath()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadGlobalConfig(configPath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	path, err := globalConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	project, _ := cmd.Flags().GetBool("project")
	force, _ := cmd.Flags().GetBool("force")

	var path, content string
	var exists bool
	if project {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, config.ProjectConfigFilename)
		content = config.ProjectConfigTemplate
		exists = config.ProjectConfigExists(cwd)
	} else {
		var err error
		path, err = globalConfigPath()
		if err != nil {
			return err
		}
		content = config.GlobalConfigTemplate
		exists = pathutil.Exists(path)
	}

	if !force && exists {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, err := globalConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadGlobalConfig(path)
	if err != nil {
		return err
	}
	if err := config.Set(&cfg, args[0], args[1]); err != nil {
		return err
	}
	if err := config.WriteGlobalConfig(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %q in %s\n", args[0], args[1], path)
	return nil
}
