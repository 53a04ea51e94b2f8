// Package config holds the immutable run configuration for satellite-reset.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when --config is not given. A missing file there is
// not an error.
const DefaultPath = "/etc/satellite-reset/config.yaml"

const (
	defaultCommandTimeout = 2 * time.Hour
	defaultSettleDelay    = 60 * time.Second
)

// Config is loaded once per invocation and passed by value.
type Config struct {
	MonitoredDirs   []MonitoredDir `yaml:"monitored_dirs"`
	FreeSpaceVolume string         `yaml:"free_space_volume"`
	CommandTimeout  time.Duration  `yaml:"command_timeout"`

	Services ServicesConfig `yaml:"services"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Broker   BrokerConfig   `yaml:"broker"`
	Pulp     PulpConfig     `yaml:"pulp"`
}

// ServicesConfig holds the commands that stop and start the platform
// service group.
type ServicesConfig struct {
	Stop  []string `yaml:"stop"`
	Start []string `yaml:"start"`
}

// PostgresConfig describes the relational store holding task history.
type PostgresConfig struct {
	Service  string `yaml:"service"`
	Database string `yaml:"database"`
	OSUser   string `yaml:"os_user"`

	// DSN switches truncation from psql to a direct connection.
	DSN string `yaml:"dsn,omitempty"`

	// CleanupLabels are the paused task labels removed before truncation.
	CleanupLabels []string `yaml:"cleanup_labels"`
}

// MongoConfig describes the document store.
type MongoConfig struct {
	// Service is the systemd unit, mongod.service on RHEL.
	Service string `yaml:"service"`
	DataDir string `yaml:"data_dir"`
	OSUser  string `yaml:"os_user"`

	// VerifyURI, when set, is pinged after the store is started again.
	VerifyURI string `yaml:"verify_uri,omitempty"`

	// ProceedOnRepairFailure keeps going (chown, start) after a failed
	// repair instead of aborting.
	ProceedOnRepairFailure bool `yaml:"proceed_on_repair_failure"`
}

// BrokerConfig describes the qpid broker and the event topology that is
// rebuilt on reset.
type BrokerConfig struct {
	Service      string        `yaml:"service"`
	URL          string        `yaml:"url"`
	Certificate  string        `yaml:"certificate"`
	Key          string        `yaml:"key"`
	JournalDirs  []string      `yaml:"journal_dirs"`
	Exchange     string        `yaml:"exchange"`
	ExchangeType string        `yaml:"exchange_type"`
	Queue        string        `yaml:"queue"`
	Bindings     []string      `yaml:"bindings"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
}

// PulpConfig describes the content-sync cleanup.
type PulpConfig struct {
	AdminPackage   string `yaml:"admin_package"`
	ScriptURL      string `yaml:"script_url"`
	ScriptPath     string `yaml:"script_path"`
	RemediationDoc string `yaml:"remediation_doc"`
}

// Default returns the built-in configuration for a Satellite 6 host.
func Default() Config {
	return Config{
		MonitoredDirs:   DefaultMonitoredDirs(),
		FreeSpaceVolume: freeSpaceVolume,
		CommandTimeout:  defaultCommandTimeout,
		Services: ServicesConfig{
			Stop:  []string{"katello-service", "stop"},
			Start: []string{"katello-service", "start"},
		},
		Postgres: PostgresConfig{
			Service:  "postgresql",
			Database: "foreman",
			OSUser:   "postgres",
			CleanupLabels: []string{
				"Actions::Katello::Repository::Sync",
				"Actions::Katello::System::GenerateApplicability",
			},
		},
		Mongo: MongoConfig{
			Service: "mongod",
			DataDir: mongoDataDir,
			OSUser:  "mongodb",
		},
		Broker: BrokerConfig{
			Service:      "qpidd.service",
			URL:          "amqps://localhost:5671",
			Certificate:  filepath.Join(katelloCertsDir, "certs", "katello-apache.crt"),
			Key:          filepath.Join(katelloCertsDir, "private", "katello-apache.key"),
			JournalDirs:  DefaultJournalDirs(),
			Exchange:     "event",
			ExchangeType: "topic",
			Queue:        "katello_event_queue",
			Bindings: []string{
				"entitlement.deleted",
				"entitlement.created",
				"pool.created",
				"pool.deleted",
				"compliance.created",
			},
			SettleDelay: defaultSettleDelay,
		},
		Pulp: PulpConfig{
			AdminPackage:   "pulp-admin-client",
			ScriptURL:      "http://people.redhat.com/~chrobert/pulp-cancel",
			ScriptPath:     pulpCancelScript,
			RemediationDoc: "https://access.redhat.com/documentation/en-us/red_hat_satellite/",
		},
	}
}

// Load reads path over the defaults. When required is false a missing file
// yields the defaults unchanged.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot drive a repair.
func (c Config) Validate() error {
	if len(c.Services.Stop) == 0 || len(c.Services.Start) == 0 {
		return errors.New("services.stop and services.start must both be set")
	}
	if c.FreeSpaceVolume == "" {
		return errors.New("free_space_volume must be set")
	}
	for _, d := range c.MonitoredDirs {
		if !filepath.IsAbs(d.Path) {
			return fmt.Errorf("monitored dir %q: path %q is not absolute", d.Name, d.Path)
		}
	}
	for _, d := range c.Broker.JournalDirs {
		if !filepath.IsAbs(d) {
			return fmt.Errorf("broker journal dir %q is not absolute", d)
		}
	}
	if c.CommandTimeout <= 0 {
		return errors.New("command_timeout must be positive")
	}
	if c.Broker.SettleDelay < 0 {
		return errors.New("broker.settle_delay must not be negative")
	}
	if c.Broker.Exchange == "" || c.Broker.Queue == "" {
		return errors.New("broker.exchange and broker.queue must be set")
	}
	if c.Mongo.DataDir == "" {
		return errors.New("mongo.data_dir must be set")
	}
	return nil
}
