package repair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lakshaymaurya-felt/satreset/internal/config"
	"github.com/lakshaymaurya-felt/satreset/internal/core"
	"github.com/lakshaymaurya-felt/satreset/internal/diskcheck"
	"github.com/lakshaymaurya-felt/satreset/internal/docstore"
	"github.com/lakshaymaurya-felt/satreset/internal/log"
	"github.com/lakshaymaurya-felt/satreset/internal/system"
	"github.com/lakshaymaurya-felt/satreset/internal/taskdb"
	"github.com/lakshaymaurya-felt/satreset/internal/ui"
)

// ServiceController stops and starts the platform service group and
// single units.
type ServiceController interface {
	StopGroup(ctx context.Context) error
	StartGroup(ctx context.Context) error
	StartUnit(ctx context.Context, unit string) error
}

// TopologyResetter rebuilds the broker exchange, queue and bindings.
type TopologyResetter interface {
	ResetTopology(ctx context.Context) error
}

// Sleeper blocks for d unless ctx ends first.
type Sleeper func(ctx context.Context, d time.Duration, label string) error

// Purger empties a directory, refusing protected paths.
type Purger func(dir string, protected []string) (int, error)

// Deps are the collaborators an Orchestrator drives. Verifier may be nil.
type Deps struct {
	Runner    system.Runner
	Services  ServiceController
	Probe     diskcheck.Probe
	Truncator taskdb.Truncator
	Broker    TopologyResetter
	Verifier  docstore.Verifier
	Confirmer Confirmer
	Sleep     Sleeper
	Purge     Purger
	Printer   *ui.Printer
}

// Orchestrator runs one repair workflow per call.
type Orchestrator struct {
	cfg    config.Config
	deps   Deps
	dryRun bool
}

// New validates deps and returns an Orchestrator. Sleep and Purge default
// to a plain context-aware sleep and core.PurgeContents.
func New(cfg config.Config, deps Deps, dryRun bool) (*Orchestrator, error) {
	switch {
	case deps.Runner == nil:
		return nil, errors.New("repair: runner is required")
	case deps.Services == nil:
		return nil, errors.New("repair: service controller is required")
	case deps.Probe == nil:
		return nil, errors.New("repair: disk probe is required")
	case deps.Truncator == nil:
		return nil, errors.New("repair: truncator is required")
	case deps.Broker == nil:
		return nil, errors.New("repair: broker admin is required")
	case deps.Confirmer == nil:
		return nil, errors.New("repair: confirmer is required")
	case deps.Printer == nil:
		return nil, errors.New("repair: printer is required")
	}
	if deps.Sleep == nil {
		deps.Sleep = func(ctx context.Context, d time.Duration, _ string) error {
			return ui.Sleep(ctx, d)
		}
	}
	if deps.Purge == nil {
		deps.Purge = core.PurgeContents
	}
	return &Orchestrator{cfg: cfg, deps: deps, dryRun: dryRun}, nil
}

// Run executes action: confirm, precheck, prepare, stop services, repair,
// start services. Services are started again on every path after they were
// stopped except when the workflow returns a *MidRepairError.
func (o *Orchestrator) Run(ctx context.Context, action Action) error {
	if !action.Valid() {
		return fmt.Errorf("unknown repair action %d", action)
	}
	logger := log.Logger.With().Str("action", action.String()).Logger()

	if err := o.deps.Confirmer.Confirm(action); err != nil {
		return err
	}
	logger.Info().Msg("operator confirmed")

	if err := o.precheck(ctx); err != nil {
		return err
	}

	if err := o.prepare(ctx, action); err != nil {
		return err
	}

	o.deps.Printer.Print(ui.LevelProgress, "Stopping Satellite services.")
	if err := o.deps.Services.StopGroup(ctx); err != nil {
		return o.restart(ctx, err)
	}

	err := o.body(ctx, action)

	var midRepair *MidRepairError
	if errors.As(err, &midRepair) {
		logger.Error().Err(err).Msg("repair aborted mid-way, services not restarted")
		o.deps.Printer.Print(ui.LevelError, midRepair.Error())
		return err
	}
	if err != nil {
		logger.Error().Err(err).Msg("repair failed")
	}

	if err := o.restart(ctx, err); err != nil {
		return err
	}
	logger.Info().Msg("repair complete")
	return nil
}

// restart starts the service group and joins any start failure onto cause.
func (o *Orchestrator) restart(ctx context.Context, cause error) error {
	o.deps.Printer.Print(ui.LevelProgress, "Starting Satellite services.")
	// Services must come back even when the operator interrupted the run.
	startCtx := context.WithoutCancel(ctx)
	if err := o.deps.Services.StartGroup(startCtx); err != nil {
		log.Error().Err(err).Msg("service group did not start")
		return errors.Join(cause, err)
	}
	return cause
}

func (o *Orchestrator) precheck(ctx context.Context) error {
	dirs := o.cfg.MonitoredDirs
	paths := make([]string, len(dirs))
	for i, d := range dirs {
		paths[i] = d.Path
	}
	o.deps.Printer.Printf(ui.LevelSuccess, "Checking available disk space in %v against free space on %s.",
		paths, o.cfg.FreeSpaceVolume)

	snap, err := diskcheck.Check(ctx, o.deps.Probe, dirs, o.cfg.FreeSpaceVolume)
	if err != nil {
		var spaceErr *diskcheck.InsufficientSpaceError
		if errors.As(err, &spaceErr) {
			o.deps.Printer.Printf(ui.LevelError,
				"There is not enough free space (%s), please add %s on %s and try again, exiting.",
				core.FormatSize(spaceErr.Free), core.FormatSize(spaceErr.Shortfall()), spaceErr.Volume)
		}
		return err
	}

	largest, _ := snap.Largest()
	msg := fmt.Sprintf("There is %s free on %s, more than the largest monitored directory (%s, %s), continuing with repair.",
		core.FormatSize(snap.Free), snap.Volume, largest.Dir.Path, core.FormatSize(largest.Used))
	if n := snap.Skipped(); n > 0 {
		msg += fmt.Sprintf(" %d unreadable entries were not counted.", n)
	}
	o.deps.Printer.Print(ui.LevelProgress, msg)
	return nil
}

// prepare runs checks that must pass before services are stopped.
func (o *Orchestrator) prepare(ctx context.Context, action Action) error {
	if action != ContentSyncCleanup {
		return nil
	}
	err := o.checkPulpAdmin(ctx)
	if err == nil {
		return nil
	}
	o.deps.Printer.Print(ui.LevelError, err.Error())
	// Services may already be down from an earlier failed run.
	return o.restart(ctx, err)
}

func (o *Orchestrator) body(ctx context.Context, action Action) error {
	var err error
	switch action {
	case ContentSyncCleanup:
		err = o.cleanupPulp(ctx)
	case TaskHistoryTruncate:
		err = o.truncateTasks(ctx)
	case BrokerReset:
		err = o.resetBroker(ctx)
	case DatabaseRepair:
		err = o.repairMongo(ctx)
	}
	if err != nil {
		return err
	}
	o.deps.Printer.Printf(ui.LevelSuccess, "%s: Complete", action.Title())
	return nil
}
