/*-------------------------------------------------------------------------
 *
 * main.go
 *    precice-run: validate a coupling configuration and drive a trivial
 *    constant-data participant for smoke-testing a configuration file
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    cmd/precice-run/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/precice-go/precice/internal/config"
	"github.com/precice-go/precice/internal/telemetry"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "precice-run",
		Short: "Coupling runtime configuration tooling",
	}
	root.AddCommand(newValidateConfigCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the precice-run version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func newValidateConfigCmd() *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "validate-config [path]",
		Short: "Parse and sanity-check a coupling configuration document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			telemetry.InitLogging(logLevel, "console")
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			telemetry.Info(context.Background(), "configuration is valid", map[string]interface{}{
				"participants": len(cfg.Participants),
				"meshes":       len(cfg.Meshes),
				"scheme":       cfg.Scheme.Kind,
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		logLevel    string
		participant string
		listen      bool
		dt          float64
	)
	cmd := &cobra.Command{
		Use:   "run [config-path]",
		Short: "Drive a constant-data participant against a configuration, for smoke-testing a coupled setup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			telemetry.InitLogging(logLevel, "console")
			return runParticipant(cmd.Context(), args[0], participant, listen, dt)
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&participant, "participant", "", "participant name to run as (required)")
	cmd.Flags().BoolVar(&listen, "listen", false, "accept the M2N connection instead of dialing it")
	cmd.Flags().Float64Var(&dt, "dt", 1.0, "fixed timestep length this participant proposes each advance()")
	cmd.MarkFlagRequired("participant")
	return cmd
}
