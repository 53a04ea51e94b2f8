package diskcheck

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/lakshaymaurya-felt/satreset/internal/log"
)

// Usage is the measured size of one directory. Skipped counts entries
// that could not be read and are missing from Bytes.
type Usage struct {
	Bytes   int64
	Skipped int
}

// Probe measures directory usage and free space on a volume.
type Probe interface {
	DirUsage(ctx context.Context, path string) (Usage, error)
	FreeSpace(ctx context.Context, path string) (int64, error)
}

// FSProbe is the Probe backed by the local filesystem.
type FSProbe struct{}

// DirUsage walks path and sums allocated blocks. Missing directories count
// as zero. Unreadable entries are logged and counted in Skipped.
func (FSProbe) DirUsage(ctx context.Context, path string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	scanner := NewScanner()
	size, err := scanner.DirSize(path)
	if err != nil {
		return Usage{}, err
	}
	for _, w := range scanner.Warnings() {
		log.Warn().Str("dir", path).Msg(w)
	}
	if n := scanner.Skipped(); n > len(scanner.Warnings()) {
		log.Warn().Str("dir", path).Int("skipped", n).Msg("further unreadable entries not logged")
	}
	return Usage{Bytes: size, Skipped: scanner.Skipped()}, nil
}

// FreeSpace reports the bytes available to unprivileged users on the volume
// holding path.
func (FSProbe) FreeSpace(ctx context.Context, path string) (int64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to read free space on %s: %w", path, err)
	}
	return int64(usage.Free), nil
}
