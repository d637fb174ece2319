package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/widget-server/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a configuration file without starting the server.

The file is parsed, environment overrides are applied, every field is
validated and the route table is built, so duplicate or malformed routes
are reported too.

Exit codes:
  0 - Config is valid
  1 - Config is invalid`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	routes, err := buildRouteTable(cfg, routeDeps{})
	if err != nil {
		return fmt.Errorf("invalid routes: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Address:  %s\n", cfg.Server.Address)
	fmt.Fprintf(out, "  Workers:  %d (max pending %d)\n", cfg.Workers.PoolSize, cfg.Workers.MaxPending)
	fmt.Fprintf(out, "  Commands: %d\n", len(cfg.RoutesOfKind(config.KindCommand)))
	fmt.Fprintf(out, "  Proxies:  %d\n", len(cfg.RoutesOfKind(config.KindProxy)))
	fmt.Fprintf(out, "  Static:   %d\n", len(cfg.RoutesOfKind(config.KindStatic)))
	fmt.Fprintf(out, "  Paths:    %d\n", routes.Len())

	return nil
}
