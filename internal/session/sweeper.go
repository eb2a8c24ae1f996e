package session

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// every is a cron.Schedule firing at a fixed interval after the previous run.
// Unlike cron.Every it keeps sub-second precision.
type every time.Duration

func (d every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}

// sweeper runs the expired-session purge on its own goroutine.
type sweeper struct {
	cron     *cron.Cron
	interval time.Duration
	log      *zap.Logger
}

func newSweeper(interval time.Duration, log *zap.Logger) *sweeper {
	cl := cronLogger{log: log.Sugar()}
	return &sweeper{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		interval: interval,
		log:      log,
	}
}

// start schedules job and launches the scheduler.
func (s *sweeper) start(job func()) {
	s.cron.Schedule(every(s.interval), cron.FuncJob(job))
	s.cron.Start()
	s.log.Debug("expiration sweeper started", zap.Duration("interval", s.interval))
}

// stop halts the scheduler and blocks until an in-flight sweep has returned.
// No sweep starts after stop returns.
func (s *sweeper) stop() {
	<-s.cron.Stop().Done()
	s.log.Debug("expiration sweeper stopped")
}

// cronLogger routes the scheduler's own diagnostics into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
