package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/palicanon/configs"
	"github.com/Aman-CERP/palicanon/internal/config"
	"github.com/Aman-CERP/palicanon/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage palicanon configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/palicanon/config.yaml)
  3. Project config (.palicanon.yaml)
  4. .env in the project root
  5. Environment variables (PALICANON_*)`,
		Example: `  # Create .palicanon.yaml in the project root
  palicanon config init

  # Create the user config instead
  palicanon config init --user

  # Show effective configuration
  palicanon config show --json`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		user  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file from the template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, user, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, user, force bool) error {
	out := output.New(cmd.OutOrStdout())

	var path string
	if user {
		path = config.GetUserConfigPath()
	} else {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		path = filepath.Join(root, config.ProjectConfigName)
	}

	if _, err := os.Stat(path); err == nil && !force {
		out.Warning("Configuration already exists")
		out.Statusf("📁", "Location: %s", path)
		out.Status("💡", "Use --force to overwrite it with the template")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Status("📋", "Run 'palicanon config show' to verify")
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return err
}
