package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simp-lee/sitesapi/internal/app"
)

func newSeedCmd(configPath *string) *cobra.Command {
	var (
		file    string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import sites from a JSON file",
		Long: `Creates the sites table if needed and imports a JSON array of sites.

Example:
  sitesapi seed --config configs/config.yaml --file testdata/sites.json
  sitesapi seed --file sites.json --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open sites file: %w", err)
			}
			defer f.Close()

			n, err := app.Seed(cmd.Context(), cfg, f, replace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d sites\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file holding an array of sites (required)")
	cmd.Flags().BoolVar(&replace, "replace", false, "overwrite existing sites with the same siteId")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
