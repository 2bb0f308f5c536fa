package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/contact-cli/internal/config"
)

var (
	configPath  string
	configForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with every default",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := writeDefaultConfig(configPath, configForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configPath, "path", "config.yaml", "file to write")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return eris.Errorf("config: %s already exists (use --force)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return eris.Wrapf(err, "config: stat %s", path)
		}
	}

	data, err := yaml.Marshal(config.Defaults())
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "config: write %s", path)
}
