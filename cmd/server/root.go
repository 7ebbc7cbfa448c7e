package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/sitesapi/internal/config"
)

const defaultConfigPath = "configs/config.yaml"

// newRootCmd builds the command tree. Running the binary without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sitesapi",
		Short:         "Paginated read API over the sites table",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file")

	root.AddCommand(
		newServeCmd(&configPath),
		newSeedCmd(&configPath),
	)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
