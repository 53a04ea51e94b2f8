package config

import (
	"path/filepath"
)

// MonitoredDir is a directory whose size is treated as a potential
// worst-case space requirement for a repair.
type MonitoredDir struct {
	// Name is the unique identifier for this directory.
	Name string `yaml:"name"`

	// Path is the absolute filesystem path.
	Path string `yaml:"path"`

	// Description is a human-readable description.
	Description string `yaml:"description,omitempty"`

	// Category groups related directories ("database", "content", "system").
	Category string `yaml:"category,omitempty"`
}

const (
	mongoDataDir     = "/var/lib/mongodb"
	pgsqlDataDir     = "/var/lib/pgsql"
	logDir           = "/var/log"
	varDir           = "/var"
	pulpDataDir      = "/var/lib/pulp"
	pulpCacheDir     = "/var/cache/pulp"
	qpidDataDir      = "/var/lib/qpidd"
	hornetqJournal   = "/var/lib/candlepin/hornetq"
	freeSpaceVolume  = "/var/tmp"
	katelloCertsDir  = "/etc/pki/katello"
	pulpCancelScript = "/root/pulp-cancel"
)

// DefaultMonitoredDirs returns the directories checked by the disk precheck.
func DefaultMonitoredDirs() []MonitoredDir {
	return []MonitoredDir{
		// ── Databases ───────────────────────────────────────────
		{
			Name:        "MongoData",
			Path:        mongoDataDir,
			Description: "MongoDB data directory",
			Category:    "database",
		},
		{
			Name:        "PostgresData",
			Path:        pgsqlDataDir,
			Description: "PostgreSQL data directory",
			Category:    "database",
		},

		// ── System ──────────────────────────────────────────────
		{
			Name:        "Logs",
			Path:        logDir,
			Description: "System and service logs",
			Category:    "system",
		},
		{
			Name:        "Var",
			Path:        varDir,
			Description: "Variable data root",
			Category:    "system",
		},

		// ── Content ─────────────────────────────────────────────
		{
			Name:        "PulpData",
			Path:        pulpDataDir,
			Description: "Pulp content store",
			Category:    "content",
		},
		{
			Name:        "PulpCache",
			Path:        pulpCacheDir,
			Description: "Pulp content cache",
			Category:    "content",
		},
	}
}

// DefaultJournalDirs returns the broker journal directories whose contents
// are wiped by a broker reset.
func DefaultJournalDirs() []string {
	return []string{qpidDataDir, hornetqJournal}
}

// ProtectedPaths returns paths that must never be purged, regardless of
// configuration.
func ProtectedPaths() []string {
	return []string{
		"/",
		"/etc",
		"/usr",
		"/boot",
		"/root",
		"/home",
		varDir,
		"/var/lib",
		filepath.Join(varDir, "log"),
		katelloCertsDir,
	}
}
