package diskcheck

import (
	"context"
	"fmt"

	"github.com/lakshaymaurya-felt/satreset/internal/config"
	"github.com/lakshaymaurya-felt/satreset/internal/core"
	"github.com/lakshaymaurya-felt/satreset/internal/log"
)

// DirUsage is the measured usage of one monitored directory.
type DirUsage struct {
	Dir     config.MonitoredDir
	Used    int64
	Skipped int
}

// Snapshot pairs the usage of every monitored directory with the free space
// on the target volume. It is computed fresh per invocation.
type Snapshot struct {
	Volume string
	Free   int64
	Dirs   []DirUsage
}

// Skipped is the number of unreadable entries left out of the totals.
func (s Snapshot) Skipped() int {
	n := 0
	for _, d := range s.Dirs {
		n += d.Skipped
	}
	return n
}

// Largest returns the monitored directory with the highest usage.
func (s Snapshot) Largest() (DirUsage, bool) {
	if len(s.Dirs) == 0 {
		return DirUsage{}, false
	}
	largest := s.Dirs[0]
	for _, d := range s.Dirs[1:] {
		if d.Used > largest.Used {
			largest = d
		}
	}
	return largest, true
}

// InsufficientSpaceError reports a monitored directory larger than the free
// space on the target volume.
type InsufficientSpaceError struct {
	Dir    string
	Volume string
	Used   int64
	Free   int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough free space on %s: %s uses %s but only %s is free (short by %s)",
		e.Volume, e.Dir, core.FormatSize(e.Used), core.FormatSize(e.Free), core.FormatSize(e.Shortfall()))
}

// Shortfall is the number of bytes missing on the target volume.
func (e *InsufficientSpaceError) Shortfall() int64 {
	return e.Used - e.Free
}

// Measure builds a Snapshot for dirs against the free space on volume.
func Measure(ctx context.Context, probe Probe, dirs []config.MonitoredDir, volume string) (Snapshot, error) {
	snap := Snapshot{Volume: volume}

	for _, d := range dirs {
		usage, err := probe.DirUsage(ctx, d.Path)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to measure %s: %w", d.Path, err)
		}
		log.Debug().Str("dir", d.Path).Int64("used", usage.Bytes).Int("skipped", usage.Skipped).Msg("measured directory")
		snap.Dirs = append(snap.Dirs, DirUsage{Dir: d, Used: usage.Bytes, Skipped: usage.Skipped})
	}

	free, err := probe.FreeSpace(ctx, volume)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Free = free
	log.Debug().Str("volume", volume).Int64("free", free).Msg("measured free space")

	return snap, nil
}

// Verify fails when any monitored directory uses more than the free space.
// Equal usage and free space passes.
func (s Snapshot) Verify() error {
	largest, ok := s.Largest()
	if !ok {
		return nil
	}
	if s.Free < largest.Used {
		return &InsufficientSpaceError{
			Dir:    largest.Dir.Path,
			Volume: s.Volume,
			Used:   largest.Used,
			Free:   s.Free,
		}
	}
	return nil
}

// Check measures and verifies in one step.
func Check(ctx context.Context, probe Probe, dirs []config.MonitoredDir, volume string) (Snapshot, error) {
	snap, err := Measure(ctx, probe, dirs, volume)
	if err != nil {
		return snap, err
	}
	return snap, snap.Verify()
}
