// Package broker rebuilds the qpid event topology Satellite relies on.
package broker

import (
	"context"
	"fmt"

	"github.com/lakshaymaurya-felt/satreset/internal/config"
	"github.com/lakshaymaurya-felt/satreset/internal/log"
	"github.com/lakshaymaurya-felt/satreset/internal/system"
)

const qpidConfig = "qpid-config"

// Admin issues qpid-config commands against one broker.
type Admin struct {
	runner system.Runner
	cfg    config.BrokerConfig
}

// NewAdmin returns an Admin authenticating with the configured
// certificate and key.
func NewAdmin(runner system.Runner, cfg config.BrokerConfig) *Admin {
	return &Admin{runner: runner, cfg: cfg}
}

func (a *Admin) run(ctx context.Context, args ...string) error {
	full := append([]string{
		"--ssl-certificate", a.cfg.Certificate,
		"--ssl-key", a.cfg.Key,
		"-b", a.cfg.URL,
	}, args...)
	if _, err := a.runner.Run(ctx, qpidConfig, full...); err != nil {
		return err
	}
	return nil
}

// DeleteExchange removes a durable exchange.
func (a *Admin) DeleteExchange(ctx context.Context, name string) error {
	return a.run(ctx, "del", "exchange", name, "--durable")
}

// AddExchange declares a durable exchange of the given type.
func (a *Admin) AddExchange(ctx context.Context, kind, name string) error {
	return a.run(ctx, "add", "exchange", kind, name, "--durable")
}

// DeleteQueue force-removes a queue even if it holds messages.
func (a *Admin) DeleteQueue(ctx context.Context, name string) error {
	return a.run(ctx, "del", "queue", name, "--force")
}

// AddQueue declares a durable queue.
func (a *Admin) AddQueue(ctx context.Context, name string) error {
	return a.run(ctx, "add", "queue", name, "--durable")
}

// Bind binds queue to exchange with a routing key.
func (a *Admin) Bind(ctx context.Context, exchange, queue, key string) error {
	return a.run(ctx, "bind", exchange, queue, key)
}

// ResetTopology recreates the exchange, then the queue, then every binding
// in configured order. Deletes are allowed to fail since the objects may
// already be gone after a journal purge; declarations and bindings are not.
func (a *Admin) ResetTopology(ctx context.Context) error {
	c := a.cfg

	if err := a.DeleteExchange(ctx, c.Exchange); err != nil {
		log.Warn().Err(err).Str("exchange", c.Exchange).Msg("exchange delete failed, continuing")
	}
	if err := a.AddExchange(ctx, c.ExchangeType, c.Exchange); err != nil {
		return fmt.Errorf("failed to add exchange %s: %w", c.Exchange, err)
	}

	if err := a.DeleteQueue(ctx, c.Queue); err != nil {
		log.Warn().Err(err).Str("queue", c.Queue).Msg("queue delete failed, continuing")
	}
	if err := a.AddQueue(ctx, c.Queue); err != nil {
		return fmt.Errorf("failed to add queue %s: %w", c.Queue, err)
	}

	for _, key := range c.Bindings {
		if err := a.Bind(ctx, c.Exchange, c.Queue, key); err != nil {
			return fmt.Errorf("failed to bind %s to %s with %s: %w", c.Queue, c.Exchange, key, err)
		}
		log.Debug().Str("key", key).Msg("binding restored")
	}
	return nil
}
