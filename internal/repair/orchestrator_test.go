package repair

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lakshaymaurya-felt/satreset/internal/broker"
	"github.com/lakshaymaurya-felt/satreset/internal/config"
	"github.com/lakshaymaurya-felt/satreset/internal/diskcheck"
	"github.com/lakshaymaurya-felt/satreset/internal/system"
	"github.com/lakshaymaurya-felt/satreset/internal/system/systemtest"
	"github.com/lakshaymaurya-felt/satreset/internal/taskdb"
	"github.com/lakshaymaurya-felt/satreset/internal/ui"
)

const (
	stopCmd  = "katello-service stop"
	startCmd = "katello-service start"
	qpid     = "qpid-config --ssl-certificate /etc/pki/katello/certs/katello-apache.crt " +
		"--ssl-key /etc/pki/katello/private/katello-apache.key -b amqps://localhost:5671 "
)

type staticProbe struct {
	used    int64
	free    int64
	skipped int
}

func (p staticProbe) DirUsage(context.Context, string) (diskcheck.Usage, error) {
	return diskcheck.Usage{Bytes: p.used, Skipped: p.skipped}, nil
}

func (p staticProbe) FreeSpace(context.Context, string) (int64, error) { return p.free, nil }

type fakeVerifier struct {
	err   error
	calls int
}

func (v *fakeVerifier) Verify(context.Context) error {
	v.calls++
	return v.err
}

type OrchestratorTestSuite struct {
	suite.Suite
	cfg      config.Config
	rec      *systemtest.Recorder
	out      *bytes.Buffer
	input    string
	probe    staticProbe
	verifier *fakeVerifier
	slept    []time.Duration
	purged   []string
	dryRun   bool
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.cfg = config.Default()
	s.rec = systemtest.New()
	s.out = &bytes.Buffer{}
	s.input = "y\n"
	s.probe = staticProbe{used: 10, free: 100}
	s.verifier = nil
	s.slept = nil
	s.purged = nil
	s.dryRun = false
}

func (s *OrchestratorTestSuite) orchestrator() *Orchestrator {
	services, err := system.NewServiceManager(s.rec, s.cfg.Services.Stop, s.cfg.Services.Start)
	s.Require().NoError(err)

	deps := Deps{
		Runner:    s.rec,
		Services:  services,
		Probe:     s.probe,
		Truncator: taskdb.NewPSQLTruncator(s.rec, s.cfg.Postgres),
		Broker:    broker.NewAdmin(s.rec, s.cfg.Broker),
		Confirmer: NewGate(strings.NewReader(s.input), ui.NewPrinter(s.out)),
		Sleep: func(_ context.Context, d time.Duration, _ string) error {
			s.slept = append(s.slept, d)
			return nil
		},
		Purge: func(dir string, _ []string) (int, error) {
			s.purged = append(s.purged, dir)
			return 1, nil
		},
		Printer: ui.NewPrinter(s.out),
	}
	if s.verifier != nil {
		deps.Verifier = s.verifier
	}
	o, err := New(s.cfg, deps, s.dryRun)
	s.Require().NoError(err)
	return o
}

func (s *OrchestratorTestSuite) assertBracketed() {
	s.Equal(1, s.rec.Count(stopCmd))
	s.Equal(1, s.rec.Count(startCmd))
	cmds := s.rec.Commands()
	s.Equal(stopCmd, cmds[0])
	s.Equal(startCmd, cmds[len(cmds)-1])
}

// ─── Confirmation and precheck ───────────────────────────────────────────────

func (s *OrchestratorTestSuite) TestDeclinedRunsNothing() {
	for _, answer := range []string{"n\n", "\n", "", "nope\n"} {
		for _, action := range Actions() {
			s.SetupTest()
			s.input = answer

			err := s.orchestrator().Run(context.Background(), action)

			var declined *DeclinedError
			s.Require().ErrorAs(err, &declined)
			s.Empty(s.rec.Calls(), "answer %q action %s", answer, action)
			s.Empty(s.purged)
		}
	}
}

func (s *OrchestratorTestSuite) TestInsufficientSpaceRunsNothing() {
	s.probe = staticProbe{used: 50, free: 49}

	err := s.orchestrator().Run(context.Background(), DatabaseRepair)

	var spaceErr *diskcheck.InsufficientSpaceError
	s.Require().ErrorAs(err, &spaceErr)
	s.Equal(int64(1), spaceErr.Shortfall())
	s.Empty(s.rec.Calls())
	s.Contains(s.out.String(), "not enough free space")
}

func (s *OrchestratorTestSuite) TestEqualSpacePasses() {
	s.probe = staticProbe{used: 50, free: 50}
	s.NoError(s.orchestrator().Run(context.Background(), TaskHistoryTruncate))
}

func (s *OrchestratorTestSuite) TestPrecheckReportsSkippedEntries() {
	s.probe = staticProbe{used: 10, free: 100, skipped: 2}

	s.Require().NoError(s.orchestrator().Run(context.Background(), TaskHistoryTruncate))
	// Six monitored dirs with two unreadable entries each.
	s.Contains(s.out.String(), "12 unreadable entries were not counted.")
}

func (s *OrchestratorTestSuite) TestUnknownAction() {
	s.Error(s.orchestrator().Run(context.Background(), ActionNone))
	s.Empty(s.rec.Calls())
}

// ─── Content sync ────────────────────────────────────────────────────────────

func (s *OrchestratorTestSuite) TestContentSyncCleanup() {
	s.Require().NoError(s.orchestrator().Run(context.Background(), ContentSyncCleanup))

	s.Equal([]string{
		"rpm -q pulp-admin-client",
		stopCmd,
		"wget http://people.redhat.com/~chrobert/pulp-cancel -O /root/pulp-cancel",
		"/bin/bash /root/pulp-cancel",
		startCmd,
	}, s.rec.Commands())
	s.Contains(s.out.String(), "Pulp task cleanup: Complete")
}

func (s *OrchestratorTestSuite) TestContentSyncMissingAdminClient() {
	s.rec.FailOn("rpm -q pulp-admin-client", 1, "package pulp-admin-client is not installed")

	err := s.orchestrator().Run(context.Background(), ContentSyncCleanup)

	var missing *MissingDependencyError
	s.Require().ErrorAs(err, &missing)
	s.Equal("pulp-admin-client", missing.Package)
	s.Equal(s.cfg.Pulp.RemediationDoc, missing.Doc)
	s.Zero(s.rec.Count(stopCmd))
	s.Equal(1, s.rec.Count(startCmd))
	s.Equal(-1, s.rec.Index("wget"))
	s.Contains(s.out.String(), s.cfg.Pulp.RemediationDoc)
}

func (s *OrchestratorTestSuite) TestContentSyncScriptFailureRestarts() {
	s.rec.FailOn("/bin/bash", 1, "boom")

	err := s.orchestrator().Run(context.Background(), ContentSyncCleanup)

	s.Require().Error(err)
	var cmdErr *system.CommandError
	s.ErrorAs(err, &cmdErr)
	s.assertBracketed()
}

// ─── Task history ────────────────────────────────────────────────────────────

func (s *OrchestratorTestSuite) TestTaskHistoryTruncate() {
	s.Require().NoError(s.orchestrator().Run(context.Background(), TaskHistoryTruncate))

	s.assertBracketed()
	cmds := s.rec.Commands()
	s.Equal("systemctl start postgresql", cmds[1])
	s.Equal(`foreman-rake foreman_tasks:cleanup TASK_SEARCH=label = "Actions::Katello::Repository::Sync" STATES=paused VERBOSE=true`, cmds[2])
	s.Equal(`foreman-rake foreman_tasks:cleanup TASK_SEARCH=label = "Actions::Katello::System::GenerateApplicability" STATES=paused VERBOSE=true`, cmds[3])

	calls := s.rec.Calls()
	truncate := calls[4]
	s.Equal("sudo", truncate.Name)
	stmt := truncate.Args[len(truncate.Args)-1]
	for _, table := range taskdb.TaskTables {
		s.Contains(stmt, `"`+table+`"`)
	}
}

func (s *OrchestratorTestSuite) TestTaskCleanupIsBestEffort() {
	s.rec.FailOn("foreman-rake", 1, "rake aborted")

	s.Require().NoError(s.orchestrator().Run(context.Background(), TaskHistoryTruncate))

	s.Equal(2, s.rec.Count("foreman-rake"))
	s.Equal(1, s.rec.Count("sudo -i -u postgres psql -d foreman -c TRUNCATE"))
	s.assertBracketed()
}

func (s *OrchestratorTestSuite) TestTruncateFailureRestarts() {
	s.rec.FailOn("sudo -i -u postgres psql", 1, "ERROR")

	s.Error(s.orchestrator().Run(context.Background(), TaskHistoryTruncate))
	s.assertBracketed()
}

// ─── Broker ──────────────────────────────────────────────────────────────────

func (s *OrchestratorTestSuite) TestBrokerReset() {
	s.Require().NoError(s.orchestrator().Run(context.Background(), BrokerReset))

	s.assertBracketed()
	s.Equal([]string{"/var/lib/qpidd", "/var/lib/candlepin/hornetq"}, s.purged)
	s.Equal([]time.Duration{60 * time.Second}, s.slept)

	start := s.rec.Index("systemctl start qpidd.service")
	delExchange := s.rec.Index(qpid + "del exchange event")
	addExchange := s.rec.Index(qpid + "add exchange topic event")
	delQueue := s.rec.Index(qpid + "del queue katello_event_queue")
	addQueue := s.rec.Index(qpid + "add queue katello_event_queue")
	s.Require().NotEqual(-1, start)
	s.Less(start, delExchange)
	s.Less(delExchange, addExchange)
	s.Less(addExchange, delQueue)
	s.Less(delQueue, addQueue)

	prev := addQueue
	for _, key := range s.cfg.Broker.Bindings {
		idx := s.rec.Index(qpid + "bind event katello_event_queue " + key)
		s.Greater(idx, prev, key)
		prev = idx
	}
	s.Contains(s.out.String(), "HornetQ/QPID journal reset: Complete")
}

func (s *OrchestratorTestSuite) TestBrokerSettleInterrupted() {
	services, err := system.NewServiceManager(s.rec, s.cfg.Services.Stop, s.cfg.Services.Start)
	s.Require().NoError(err)
	o, err := New(s.cfg, Deps{
		Runner:    s.rec,
		Services:  services,
		Probe:     s.probe,
		Truncator: taskdb.NewPSQLTruncator(s.rec, s.cfg.Postgres),
		Broker:    broker.NewAdmin(s.rec, s.cfg.Broker),
		Confirmer: NewGate(strings.NewReader("y\n"), ui.NewPrinter(s.out)),
		Sleep: func(context.Context, time.Duration, string) error {
			return context.Canceled
		},
		Purge:   func(string, []string) (int, error) { return 0, nil },
		Printer: ui.NewPrinter(s.out),
	}, false)
	s.Require().NoError(err)

	err = o.Run(context.Background(), BrokerReset)
	s.ErrorIs(err, context.Canceled)
	s.Equal(-1, s.rec.Index("qpid-config"))
	s.assertBracketed()
}

func (s *OrchestratorTestSuite) TestBrokerDryRunSkipsPurgeAndWait() {
	s.dryRun = true

	s.Require().NoError(s.orchestrator().Run(context.Background(), BrokerReset))
	s.Empty(s.purged)
	s.Empty(s.slept)
	s.Equal(5, s.rec.Count(qpid+"bind"))
}

// ─── Document store ──────────────────────────────────────────────────────────

func (s *OrchestratorTestSuite) TestDatabaseRepair() {
	s.verifier = &fakeVerifier{}

	s.Require().NoError(s.orchestrator().Run(context.Background(), DatabaseRepair))

	s.Equal([]string{
		stopCmd,
		"sudo -u mongodb mongod --dbpath /var/lib/mongodb --repair",
		"chown -R mongodb:mongodb /var/lib/mongodb",
		"systemctl start mongod",
		startCmd,
	}, s.rec.Commands())
	s.Equal(1, s.verifier.calls)
}

func (s *OrchestratorTestSuite) TestDatabaseRepairFailureLeavesServicesStopped() {
	s.rec.FailOn("sudo -u mongodb mongod", 100, "exception in initAndListen")

	err := s.orchestrator().Run(context.Background(), DatabaseRepair)

	var midRepair *MidRepairError
	s.Require().ErrorAs(err, &midRepair)
	s.Equal(1, s.rec.Count(stopCmd))
	s.Zero(s.rec.Count(startCmd))
	s.Equal(-1, s.rec.Index("chown"))
	s.Equal(-1, s.rec.Index("systemctl start mongod"))
}

func (s *OrchestratorTestSuite) TestDatabaseRepairProceedVariant() {
	s.cfg.Mongo.ProceedOnRepairFailure = true
	s.rec.FailOn("sudo -u mongodb mongod", 100, "exception in initAndListen")

	s.Require().NoError(s.orchestrator().Run(context.Background(), DatabaseRepair))
	s.NotEqual(-1, s.rec.Index("chown -R mongodb:mongodb"))
	s.NotEqual(-1, s.rec.Index("systemctl start mongod"))
	s.assertBracketed()
}

func (s *OrchestratorTestSuite) TestDatabaseVerifyFailureIsWarning() {
	s.verifier = &fakeVerifier{err: errors.New("server selection timeout")}

	s.Require().NoError(s.orchestrator().Run(context.Background(), DatabaseRepair))
	s.Contains(s.out.String(), "did not answer")
}

// ─── Service lifecycle ───────────────────────────────────────────────────────

func (s *OrchestratorTestSuite) TestEverySuccessfulActionIsBracketed() {
	for _, action := range Actions() {
		s.SetupTest()
		s.Require().NoError(s.orchestrator().Run(context.Background(), action), action.String())
		s.assertBracketed()
	}
}

func (s *OrchestratorTestSuite) TestStopFailureStillStarts() {
	s.rec.FailOn(stopCmd, 1, "partial")

	err := s.orchestrator().Run(context.Background(), BrokerReset)
	s.Require().Error(err)
	s.Equal(1, s.rec.Count(startCmd))
	s.Empty(s.purged)
}

func (s *OrchestratorTestSuite) TestStartFailureIsJoined() {
	s.rec.FailOn(startCmd, 1, "httpd failed")
	s.rec.FailOn("/bin/bash", 1, "boom")

	err := s.orchestrator().Run(context.Background(), ContentSyncCleanup)
	s.Require().Error(err)
	s.Contains(err.Error(), "boom")
	s.Contains(err.Error(), "httpd failed")
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(config.Default(), Deps{}, false)
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	rec := systemtest.New()
	cfg := config.Default()
	services, err := system.NewServiceManager(rec, cfg.Services.Stop, cfg.Services.Start)
	require.NoError(t, err)

	o, err := New(cfg, Deps{
		Runner:    rec,
		Services:  services,
		Probe:     staticProbe{},
		Truncator: taskdb.NewPSQLTruncator(rec, cfg.Postgres),
		Broker:    broker.NewAdmin(rec, cfg.Broker),
		Confirmer: NewGate(strings.NewReader(""), ui.NewPrinter(&bytes.Buffer{})),
		Printer:   ui.NewPrinter(&bytes.Buffer{}),
	}, false)
	require.NoError(t, err)
	assert.NotNil(t, o.deps.Sleep)
	assert.NotNil(t, o.deps.Purge)
}
