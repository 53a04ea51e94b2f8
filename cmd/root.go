// Package cmd wires the satellite-reset command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/satreset/internal/config"
	"github.com/lakshaymaurya-felt/satreset/internal/log"
	"github.com/lakshaymaurya-felt/satreset/internal/repair"
	"github.com/lakshaymaurya-felt/satreset/internal/ui"
)

// Process exit codes.
const (
	ExitSuccess  = 0
	ExitDeclined = 1
	ExitAborted  = 2
)

var (
	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

type rootOptions struct {
	debug      bool
	dryRun     bool
	configPath string

	pulpTasks bool
	tasks     bool
	hornetq   bool
	mongo     bool
}

// action maps the selected flag to a repair action. Cobra already
// guarantees at most one is set.
func (o *rootOptions) action() repair.Action {
	switch {
	case o.pulpTasks:
		return repair.ContentSyncCleanup
	case o.tasks:
		return repair.TaskHistoryTruncate
	case o.hornetq:
		return repair.BrokerReset
	case o.mongo:
		return repair.DatabaseRepair
	default:
		return repair.ActionNone
	}
}

// loadConfig reads --config when given, otherwise the default path if it
// exists.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	required := cmd.Flags().Changed("config")
	return config.Load(o.configPath, required)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "satellite-reset",
		Short: "Repair a broken Satellite server",
		Long: `satellite-reset - destructive repair routines for a Satellite server.

Each action stops the Satellite services, repairs one component and starts
the services again. Only run it when directed by Red Hat Support: there is a
risk of data loss.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.SetOutput(cmd.ErrOrStderr())
			if opts.debug {
				log.SetDebugMode()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			action := opts.action()
			if action == repair.ActionNone {
				return cmd.Help()
			}
			return runRepair(cmd, opts, action)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&opts.debug, "debug", false, "Show detailed operation logs")
	pf.BoolVar(&opts.dryRun, "dry-run", false, "Log the commands instead of running them")
	pf.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the configuration file")

	f := cmd.Flags()
	f.BoolVarP(&opts.pulpTasks, "pulp-tasks", "p", false,
		"Cancel all running and pending Pulp tasks - Deletes all running and pending Pulp tasks.")
	f.BoolVarP(&opts.tasks, "tasks", "t", false,
		"Truncate all Foreman Task and Dynflow tables - Deletes ALL current and historical task data.")
	f.BoolVarP(&opts.hornetq, "hornetq", "q", false,
		"Reset HornetQ journals and QPID queues, see https://access.redhat.com/solutions/3380351.")
	f.BoolVarP(&opts.mongo, "mongo", "m", false,
		"Start a repair of MongoDB - Takes a while depending on the size of your database.")
	cmd.MarkFlagsMutuallyExclusive("pulp-tasks", "tasks", "hornetq", "mongo")

	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCompletionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	err := root.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code != ExitDeclined {
		fmt.Fprintln(root.ErrOrStderr(), ui.Render(ui.LevelError, "Error: "+err.Error()))
	}
	return code
}

// exitCode maps an error from a run to the process exit code.
func exitCode(err error) int {
	var declined *repair.DeclinedError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &declined):
		return ExitDeclined
	default:
		return ExitAborted
	}
}
