package system

import (
	"context"
	"errors"
	"fmt"
)

// ServiceManager controls the platform service group and individual units.
type ServiceManager struct {
	runner Runner
	stop   []string
	start  []string
}

// NewServiceManager returns a manager that runs stopCmd/startCmd for the
// whole group. Both must name at least the executable.
func NewServiceManager(runner Runner, stopCmd, startCmd []string) (*ServiceManager, error) {
	if len(stopCmd) == 0 || len(startCmd) == 0 {
		return nil, errors.New("service group stop and start commands are required")
	}
	return &ServiceManager{
		runner: runner,
		stop:   append([]string(nil), stopCmd...),
		start:  append([]string(nil), startCmd...),
	}, nil
}

// StopGroup stops every platform service.
func (m *ServiceManager) StopGroup(ctx context.Context) error {
	if _, err := m.runner.Run(ctx, m.stop[0], m.stop[1:]...); err != nil {
		return fmt.Errorf("failed to stop services: %w", err)
	}
	return nil
}

// StartGroup starts every platform service.
func (m *ServiceManager) StartGroup(ctx context.Context) error {
	if _, err := m.runner.Run(ctx, m.start[0], m.start[1:]...); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	return nil
}

// StartUnit starts a single systemd unit.
func (m *ServiceManager) StartUnit(ctx context.Context, unit string) error {
	if _, err := m.runner.Run(ctx, "systemctl", "start", unit); err != nil {
		return fmt.Errorf("failed to start %s: %w", unit, err)
	}
	return nil
}
