package testutil

import (
	"testing"
	"time"

	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/session"
)

// CreateSession persists a session fixture in the given repository.
func CreateSession(
	t *testing.T,
	repo session.Repository,
	channel session.Channel,
	channelID, learnerPhone, lessonID string,
	startedAt ...time.Time,
) session.Session {
	t.Helper()

	sess := session.New(channel, channelID, learnerPhone, lessonID)
	if len(startedAt) > 0 {
		sess.StartedAt = startedAt[0].UTC()
	}
	sess, err := repo.CreateSession(sess)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

// Logger is a quiet core.Logger that fails the test on Fatal.
type Logger struct {
	T *testing.T
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t *testing.T) *Logger { return &Logger{T: t} }

func (l *Logger) Debug(msg string, args ...interface{}) {}
func (l *Logger) Info(msg string, args ...interface{})  {}
func (l *Logger) Warn(msg string, args ...interface{})  {}
func (l *Logger) Error(msg string, args ...interface{}) {}
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.T.Fatalf("fatal: %s %v", msg, args)
}

// NewTestConfig returns a config suitable for in-process tests: mock provider,
// no operator email, instant first-question delivery.
func NewTestConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = true
	conf.TestMode = true
	conf.AT.Username = ""
	conf.AT.ApiKey = ""
	conf.OperatorEmail = ""
	conf.Reward.FirstQuestionWait = 0
	return conf
}
