package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/binary"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/config"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/fault"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(a))
	return cmd
}

func newConfigInitCommand(a *app) *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a configuration file with the default settings",
		Long: `Write a configuration file with the default settings.

Without PATH the file is created in the configuration directory
($CLANG_TOOLBOX_CONFIG_DIR, or clang-toolbox under the user config directory).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initPath(args, format)
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fault.Configuration.New("%s already exists; use --force to overwrite it", path)
			}

			data, err := config.NewGenerator().Generate(path, defaultFile())
			if err != nil {
				return fault.Configuration.Wrap(err)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fault.Configuration.Wrap(fmt.Errorf("create config directory: %w", err))
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fault.Configuration.Wrap(fmt.Errorf("write config: %w", err))
			}

			a.logger().Debug("Wrote configuration", "file", path)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "lua", "file format when PATH is omitted: lua or yaml")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func initPath(args []string, format string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	var name string
	switch format {
	case "lua":
		name = "config.lua"
	case "yaml", "yml":
		name = "config.yaml"
	default:
		return "", fault.Configuration.New("unknown config format %q (want lua or yaml)", format)
	}

	dir, err := config.DefaultDir()
	if err != nil {
		return "", fault.Configuration.Wrap(err)
	}
	return filepath.Join(dir, name), nil
}

// defaultFile spells out the settings a fresh configuration starts from.
func defaultFile() *config.File {
	mode := binary.ModeTempFile.String()
	unsigned := false
	apiURL := config.DefaultAPIURL
	keyServer := binary.DefaultKeyServer
	maxPages := config.DefaultMaxPages

	return &config.File{
		Mode:      &mode,
		Unsigned:  &unsigned,
		APIURL:    &apiURL,
		KeyServer: &keyServer,
		MaxPages:  &maxPages,
	}
}
