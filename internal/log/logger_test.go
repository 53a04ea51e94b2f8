package log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

// LoggerTestSuite tests the log package
type LoggerTestSuite struct {
	suite.Suite
	originalLogger zerolog.Logger
	originalLevel  zerolog.Level
	output         *bytes.Buffer
}

func (s *LoggerTestSuite) SetupTest() {
	s.originalLogger = Logger
	s.originalLevel = level
	s.output = &bytes.Buffer{}
	SetOutput(s.output)
}

func (s *LoggerTestSuite) TearDownTest() {
	level = s.originalLevel
	Logger = s.originalLogger
}

func (s *LoggerTestSuite) TestInfoLog() {
	Info().Str("action", "mongo").Msg("repair started")

	out := s.output.String()
	s.Contains(out, "repair started")
	s.Contains(out, "INF")
	s.Contains(out, "action=mongo")
	s.Contains(out, "tool=satellite-reset")
}

func (s *LoggerTestSuite) TestDebugHiddenByDefault() {
	level = zerolog.InfoLevel
	SetOutput(s.output)

	Debug().Msg("hidden detail")
	s.NotContains(s.output.String(), "hidden detail")
}

func (s *LoggerTestSuite) TestSetDebugMode() {
	SetDebugMode()
	Debug().Msg("visible detail")

	s.Contains(s.output.String(), "visible detail")
	s.Equal(zerolog.DebugLevel, Logger.GetLevel())
}

func (s *LoggerTestSuite) TestSetOutputKeepsLevel() {
	SetDebugMode()
	other := &bytes.Buffer{}
	SetOutput(other)

	Debug().Msg("still debug")
	s.Contains(other.String(), "still debug")
}

func (s *LoggerTestSuite) TestWarnAndError() {
	Warn().Msg("warn line")
	Error().Str("cmd", "qpid-config").Msg("error line")

	out := s.output.String()
	s.Contains(out, "WRN")
	s.Contains(out, "warn line")
	s.Contains(out, "ERR")
	s.Contains(out, "cmd=qpid-config")
}

func (s *LoggerTestSuite) TestNoColorOffTerminal() {
	Warn().Msg("plain")
	s.NotContains(s.output.String(), "\x1b[")
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}
