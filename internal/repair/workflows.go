package repair

import (
	"context"
	"fmt"

	"github.com/lakshaymaurya-felt/satreset/internal/config"
	"github.com/lakshaymaurya-felt/satreset/internal/log"
	"github.com/lakshaymaurya-felt/satreset/internal/taskdb"
	"github.com/lakshaymaurya-felt/satreset/internal/ui"
)

// ─── Content sync ────────────────────────────────────────────────────────────

func (o *Orchestrator) checkPulpAdmin(ctx context.Context) error {
	pkg := o.cfg.Pulp.AdminPackage
	o.deps.Printer.Printf(ui.LevelInfo, "Checking for %s.", pkg)
	if _, err := o.deps.Runner.Run(ctx, "rpm", "-q", pkg); err != nil {
		return &MissingDependencyError{Package: pkg, Doc: o.cfg.Pulp.RemediationDoc, Err: err}
	}
	return nil
}

func (o *Orchestrator) cleanupPulp(ctx context.Context) error {
	p := o.cfg.Pulp

	o.deps.Printer.Print(ui.LevelInfo, "Grabbing the pulp cleanup script.")
	if _, err := o.deps.Runner.Run(ctx, "wget", p.ScriptURL, "-O", p.ScriptPath); err != nil {
		return fmt.Errorf("failed to download %s: %w", p.ScriptURL, err)
	}

	o.deps.Printer.Print(ui.LevelInfo, "Running pulp cleanup script.")
	if _, err := o.deps.Runner.Run(ctx, "/bin/bash", p.ScriptPath); err != nil {
		return fmt.Errorf("pulp cleanup script failed: %w", err)
	}
	return nil
}

// ─── Task history ────────────────────────────────────────────────────────────

// cleanupArgs builds the foreman-rake arguments removing paused tasks with
// the given label.
func cleanupArgs(label string) []string {
	return []string{
		"foreman_tasks:cleanup",
		fmt.Sprintf("TASK_SEARCH=label = %q", label),
		"STATES=paused",
		"VERBOSE=true",
	}
}

func (o *Orchestrator) truncateTasks(ctx context.Context) error {
	pg := o.cfg.Postgres

	if err := o.deps.Services.StartUnit(ctx, pg.Service); err != nil {
		return err
	}

	o.deps.Printer.Print(ui.LevelProgress, "Starting to remove paused tasks related to Pulp and syncing.")
	for _, label := range pg.CleanupLabels {
		if _, err := o.deps.Runner.Run(ctx, "foreman-rake", cleanupArgs(label)...); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("label", label).Msg("paused task cleanup failed, continuing")
			o.deps.Printer.Printf(ui.LevelWarn, "Could not remove paused %s tasks, continuing.", label)
		}
	}
	o.deps.Printer.Print(ui.LevelSuccess, "Finished removing paused tasks.")

	o.deps.Printer.Print(ui.LevelProgress, "Starting to truncate the task tables.")
	return o.deps.Truncator.Truncate(ctx, taskdb.TaskTables)
}

// ─── Broker ──────────────────────────────────────────────────────────────────

func (o *Orchestrator) resetBroker(ctx context.Context) error {
	b := o.cfg.Broker

	o.deps.Printer.Print(ui.LevelProgress, "Starting to repair QPID and HornetQ journals.")
	for _, dir := range b.JournalDirs {
		if o.dryRun {
			log.Info().Str("dir", dir).Msg("DRY-RUN: would purge journal directory")
			continue
		}
		n, err := o.deps.Purge(dir, config.ProtectedPaths())
		if err != nil {
			return fmt.Errorf("failed to clear journal: %w", err)
		}
		log.Info().Str("dir", dir).Int("removed", n).Msg("journal directory cleared")
	}

	if err := o.deps.Services.StartUnit(ctx, b.Service); err != nil {
		return err
	}

	if !o.dryRun && b.SettleDelay > 0 {
		label := fmt.Sprintf("Sleeping for %s for qpid to start fully", b.SettleDelay)
		o.deps.Printer.Print(ui.LevelProgress, label)
		if err := o.deps.Sleep(ctx, b.SettleDelay, label); err != nil {
			return fmt.Errorf("broker settle wait: %w", err)
		}
	}

	return o.deps.Broker.ResetTopology(ctx)
}

// ─── Document store ──────────────────────────────────────────────────────────

func (o *Orchestrator) repairMongo(ctx context.Context) error {
	m := o.cfg.Mongo

	o.deps.Printer.Print(ui.LevelProgress, "Starting repair on MongoDB, this may take a while depending on the size.")
	_, err := o.deps.Runner.Run(ctx, "sudo", "-u", m.OSUser, "mongod", "--dbpath", m.DataDir, "--repair")
	if err != nil {
		if !m.ProceedOnRepairFailure || ctx.Err() != nil {
			return &MidRepairError{Step: "MongoDB repair", Err: err}
		}
		log.Warn().Err(err).Msg("mongod repair failed, proceeding as configured")
		o.deps.Printer.Print(ui.LevelWarn, "MongoDB repair did not finish successfully, proceeding anyway.")
	}

	owner := m.OSUser + ":" + m.OSUser
	if _, err := o.deps.Runner.Run(ctx, "chown", "-R", owner, m.DataDir); err != nil {
		return fmt.Errorf("failed to restore ownership of %s: %w", m.DataDir, err)
	}

	if err := o.deps.Services.StartUnit(ctx, m.Service); err != nil {
		return err
	}

	if o.deps.Verifier != nil && !o.dryRun {
		if err := o.deps.Verifier.Verify(ctx); err != nil {
			log.Warn().Err(err).Msg("document store verification failed")
			o.deps.Printer.Printf(ui.LevelWarn, "MongoDB started but did not answer: %v", err)
		} else {
			o.deps.Printer.Print(ui.LevelSuccess, "MongoDB answered ping.")
		}
	}
	return nil
}
