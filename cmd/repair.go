package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/satreset/internal/broker"
	"github.com/lakshaymaurya-felt/satreset/internal/config"
	"github.com/lakshaymaurya-felt/satreset/internal/core"
	"github.com/lakshaymaurya-felt/satreset/internal/diskcheck"
	"github.com/lakshaymaurya-felt/satreset/internal/docstore"
	"github.com/lakshaymaurya-felt/satreset/internal/log"
	"github.com/lakshaymaurya-felt/satreset/internal/repair"
	"github.com/lakshaymaurya-felt/satreset/internal/system"
	"github.com/lakshaymaurya-felt/satreset/internal/taskdb"
	"github.com/lakshaymaurya-felt/satreset/internal/ui"
)

func runRepair(cmd *cobra.Command, opts *rootOptions, action repair.Action) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	if !opts.dryRun {
		if err := core.RequireRoot(); err != nil {
			return err
		}
	}

	orch, err := buildOrchestrator(cmd, cfg, opts.dryRun)
	if err != nil {
		return err
	}

	log.Info().
		Str("action", action.String()).
		Bool("dry_run", opts.dryRun).
		Msg("starting repair")
	return orch.Run(cmd.Context(), action)
}

func buildOrchestrator(cmd *cobra.Command, cfg config.Config, dryRun bool) (*repair.Orchestrator, error) {
	var runner system.Runner = system.NewExecRunner(cfg.CommandTimeout)
	if dryRun {
		runner = system.DryRunRunner{}
	}

	services, err := system.NewServiceManager(runner, cfg.Services.Stop, cfg.Services.Start)
	if err != nil {
		return nil, err
	}

	truncator, err := taskdb.New(runner, cfg.Postgres, dryRun)
	if err != nil {
		return nil, err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	deps := repair.Deps{
		Runner:    runner,
		Services:  services,
		Probe:     diskcheck.FSProbe{},
		Truncator: truncator,
		Broker:    broker.NewAdmin(runner, cfg.Broker),
		Confirmer: repair.NewGate(cmd.InOrStdin(), printer),
		Sleep: func(ctx context.Context, d time.Duration, label string) error {
			return ui.Countdown(ctx, cmd.OutOrStdout(), d, label)
		},
		Purge:   core.PurgeContents,
		Printer: printer,
	}

	if cfg.Mongo.VerifyURI != "" {
		pinger, err := docstore.NewPinger(cfg.Mongo.VerifyURI, 0)
		if err != nil {
			return nil, err
		}
		deps.Verifier = pinger
	}

	return repair.New(cfg, deps, dryRun)
}
