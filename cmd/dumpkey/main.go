package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command with its subcommands
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	statusFlags := &StatusFlags{}
	triggerFlags := &TriggerFlags{}
	triggersFlags := &TriggersFlags{}
	simulateFlags := &SimulateFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createStatusCommand(statusFlags),
		createTriggerCommand(triggerFlags),
		createTriggersCommand(triggersFlags),
		createSimulateCommand(simulateFlags),
		createServeCommand(globalFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "dumpkey",
		Short: "Key-gesture diagnostic trigger daemon",
		Long: `Dumpkey watches a key input device for the diagnostic button gesture
and dispatches forced dumps, trace captures and debug notifications.

Examples:
  dumpkey serve --config=config.toml   # Start daemon
  dumpkey status                       # Recognizer/peer snapshot
  dumpkey trigger --action=capture_trace --target=system_server
  dumpkey triggers --limit=20          # Recent audit records`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

// createStatusCommand creates the status subcommand
func createStatusCommand(flags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's recognizer and peer state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(flags.APIUrl, flags.APITimeout)
			st, err := client.GetStatus()
			if err != nil {
				return err
			}
			printJSON(st)
			return nil
		},
	}

	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)
	return cmd
}

// createTriggerCommand creates the trigger subcommand
func createTriggerCommand(flags *TriggerFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Dispatch a diagnostic action directly",
		Long: `Dispatch a diagnostic action through the daemon, bypassing the gesture.

Examples:
  dumpkey trigger --action=capture_trace --target=system_server
  dumpkey trigger --action=capture_tombstone --target=system_server --chord-gated
  dumpkey trigger --action=enable_debug_notify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(flags.APIUrl, flags.APITimeout)
			res, err := client.Trigger(flags.Action, flags.Target, flags.ChordGated)
			if err != nil {
				return err
			}
			printJSON(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Action, "action", "", "action to dispatch (required)")
	cmd.Flags().StringVar(&flags.Target, "target", "", "capture target process name")
	cmd.Flags().BoolVar(&flags.ChordGated, "chord-gated", false, "only dispatch while power+volume-up are held")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)

	if err := cmd.MarkFlagRequired("action"); err != nil {
		panic(err)
	}
	return cmd
}

// createTriggersCommand creates the triggers subcommand
func createTriggersCommand(flags *TriggersFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "List recent dispatched actions from the audit journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(flags.APIUrl, flags.APITimeout)
			recs, err := client.ListTriggers(flags.Limit)
			if err != nil {
				return err
			}
			printJSON(recs)
			return nil
		},
	}

	cmd.Flags().IntVar(&flags.Limit, "limit", 20, "maximum records to return")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)
	return cmd
}

// createSimulateCommand creates the simulate subcommand
func createSimulateCommand(flags *SimulateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Feed button transitions to the daemon's recognizer",
		Long: `Feed synthetic button transitions to the running daemon.
Each event is button:transition, where transition is down or up.

Examples:
  dumpkey simulate --event=volume_up:down --event=volume_up:up`,
		RunE: func(cmd *cobra.Command, args []string) error {
			events := make([]map[string]any, 0, len(flags.Events))
			for _, s := range flags.Events {
				ev, err := parseEventSpec(s)
				if err != nil {
					return err
				}
				events = append(events, ev)
			}
			client := NewAPIClient(flags.APIUrl, flags.APITimeout)
			st, err := client.Simulate(events)
			if err != nil {
				return err
			}
			printJSON(st)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&flags.Events, "event", nil, "button:transition, repeatable (required)")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)

	if err := cmd.MarkFlagRequired("event"); err != nil {
		panic(err)
	}
	return cmd
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{
		ConfigPath: globalFlags.ConfigPath,
	}

	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the dumpkey daemon",
		Long: `Start the dumpkey daemon: watch the input device, serve the HTTP API
and the notification socket.

Examples:
  dumpkey serve config.toml
  dumpkey serve --config=config.toml --daemonize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serveFlags.ConfigPath == "" {
				serveFlags.ConfigPath = globalFlags.ConfigPath
			}
			return runServeCommand(serveFlags, args)
		},
	}

	cmd.Flags().BoolVar(&serveFlags.Daemonize, "daemonize", false, "run as daemon in background")
	cmd.Flags().StringVar(&serveFlags.PidFile, "pidfile", "", "write daemon PID to file")
	cmd.Flags().StringVar(&serveFlags.LogFile, "logfile", "", "redirect daemon logs to file")

	return cmd
}

func addAPIFlags(cmd *cobra.Command, url *string, timeout *time.Duration) {
	cmd.Flags().StringVar(url, "api-url", "", "daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(timeout, "api-timeout", 10*time.Second, "request timeout")
}
