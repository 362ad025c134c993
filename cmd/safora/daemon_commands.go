package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"safora/internal/api"
	"safora/internal/daemonctl"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the safora daemon and bind its channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the safora daemon (terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			} else {
				fmt.Fprintln(stdout, "Unbinding channels...")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, presence, and capability status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			status, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range statusLines(status, colorize) {
				fmt.Fprintln(stdout, line)
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Capabilities", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if len(status.Capabilities) == 0 {
				fmt.Fprintln(stdout, "No capabilities recorded")
				return nil
			}
			fmt.Fprint(stdout, renderTable(capabilityColumns, capabilityRows(status.Capabilities)))
			fmt.Fprintln(stdout)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit the status as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func statusLines(status *api.DaemonStatus, colorize bool) []string {
	lines := renderSectionHeader("System Status", colorize)
	if status.Running {
		message := "Running"
		if status.PID > 0 {
			message = fmt.Sprintf("Running (pid %d)", status.PID)
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, message, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusError, "Not running", colorize))
	}
	lines = append(lines, renderStatusLine("Presence", presenceKind(status.Presence.State), presenceMessage(status.Presence), colorize))
	if len(status.Channels) == 0 {
		lines = append(lines, renderStatusLine("Channels", statusWarn, "none bound", colorize))
	} else {
		lines = append(lines, renderStatusLine("Channels", statusOK, strings.Join(status.Channels, ", "), colorize))
	}
	if status.DatabasePath != "" {
		lines = append(lines, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
	}
	if status.SocketPath != "" {
		lines = append(lines, renderStatusLine("Socket", statusInfo, status.SocketPath, colorize))
	}

	if len(status.Checks) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Readiness", colorize)...)
		lines = append(lines, checkLines(status.Checks, colorize)...)
	}
	return lines
}

func capabilityRows(caps []api.Capability) [][]string {
	rows := make([][]string, 0, len(caps))
	for _, c := range caps {
		rows = append(rows, []string{c.Name, c.State, strconv.Itoa(c.PendingRequests), c.UpdatedAt})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{ConfigPath: ctx.configPath()}
	if ctx.logLevelFlag != nil {
		opts.LogLevel = strings.TrimSpace(*ctx.logLevelFlag)
	}
	return opts
}
