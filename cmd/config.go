package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"serial-maze/pkg/config"
)

var configForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: `Manage the YAML configuration file read at startup.

Values missing from the file keep their defaults, and command line flags
override the file.`,
}

// initCmd writes the defaults
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Long: `Write the default settings to the configuration file.

Example:
  serial-maze config init
  serial-maze --config ./maze.yml config init --force`,
	Args: cobra.NoArgs,
	RunE: runInitConfig,
}

// showCmd prints the effective settings
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runShowConfig,
}

// pathCmd prints the file location
var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	initCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(pathCmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	manager, err := config.NewFileConfigManager(configPath)
	if err != nil {
		return err
	}

	if manager.Exists() && !configForce {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", manager.Path())
	}

	if err := manager.Save(config.DefaultSettings()); err != nil {
		return fmt.Errorf("error saving configuration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", manager.Path())
	return nil
}

func runShowConfig(cmd *cobra.Command, args []string) error {
	manager, err := config.NewFileConfigManager(configPath)
	if err != nil {
		return err
	}

	settings, err := manager.Load()
	if err != nil {
		return err
	}

	data, err := config.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error rendering configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	if manager.Exists() {
		fmt.Fprintf(out, "# %s\n", manager.Path())
	} else {
		fmt.Fprintf(out, "# %s (not found, showing defaults)\n", manager.Path())
	}
	_, err = out.Write(data)
	return err
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	manager, err := config.NewFileConfigManager(configPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), manager.Path())
	return nil
}
