package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"safora/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the current daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logs.CurrentPath(cfg.Paths.LogDir)
			out := cmd.OutOrStdout()

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(result.Lines) == 0 && result.Offset == 0 {
					fmt.Fprintf(out, "No log output at %s\n", path)
				}
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = logs.Follow(followCtx, path, result.Offset, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only show records from this component")
	cmd.Flags().StringVar(&filter.Channel, "channel", "", "Only show records for this channel")
	cmd.Flags().StringVar(&filter.CorrelationID, "correlation-id", "", "Only show records for one invocation")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Case-insensitive substring to match")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		filter.MinLevel = strings.ToLower(strings.TrimSpace(filter.MinLevel))
		switch filter.MinLevel {
		case "", "debug", "info", "warn", "warning", "error":
			return nil
		default:
			return fmt.Errorf("invalid --level %q", filter.MinLevel)
		}
	}
	return cmd
}
