// Package docstore checks that the document store answers after a repair.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lakshaymaurya-felt/satreset/internal/log"
)

const defaultPingTimeout = 30 * time.Second

// Verifier confirms the document store is reachable.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Pinger pings a MongoDB deployment through the official driver.
type Pinger struct {
	uri     string
	timeout time.Duration
}

// NewPinger returns a Pinger for uri. A zero timeout uses 30 seconds.
func NewPinger(uri string, timeout time.Duration) (*Pinger, error) {
	if uri == "" {
		return nil, errors.New("mongo verify uri is empty")
	}
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return &Pinger{uri: uri, timeout: timeout}, nil
}

// Verify connects, pings the primary and disconnects.
func (p *Pinger) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(p.uri).
		SetServerSelectionTimeout(p.timeout).
		SetAppName("satellite-reset")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Debug().Err(err).Msg("document store disconnect failed")
		}
	}()

	start := time.Now()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("document store did not answer ping: %w", err)
	}
	log.Debug().Dur("rtt", time.Since(start)).Msg("document store answered ping")
	return nil
}

var _ Verifier = (*Pinger)(nil)
