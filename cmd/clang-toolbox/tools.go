package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/config"
	"github.com/ZebulonRouseFrantzich/clang-toolbox/internal/platform"
)

func newToolsCommand(a *app) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool names and the archive paths they extract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Defaults()

			path := configPath
			if path == "" {
				path, _ = config.FindDefault()
			}
			if path != "" {
				file, err := config.NewParser(platform.NewDetector(), a.logger()).LoadFile(cmd.Context(), path)
				if err != nil {
					return err
				}
				if err := cfg.Apply(file); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAMES\tPATHS")
			for _, target := range cfg.Targets {
				fmt.Fprintf(w, "%s\t%s\n", strings.Join(target.Names, ", "), strings.Join(target.Paths, ", "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "configuration file (.lua, .yaml or .yml)")
	return cmd
}
