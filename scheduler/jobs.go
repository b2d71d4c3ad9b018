package scheduler

import (
	"time"
)

const sessionSweepJob = "workspace_session_sweep"

// Sweeper удаляет истёкшие сессии и сообщает, сколько удалено.
type Sweeper interface {
	Sweep(now time.Time) int
}

// RegisterSessionSweep регистрирует очистку брошенных сессий распределения.
func RegisterSessionSweep(s *Service, sweeper Sweeper, interval time.Duration) error {
	_, err := s.AddIntervalJob(sessionSweepJob, interval, func() {
		sweeper.Sweep(time.Now())
	})
	return err
}

const limiterCleanupJob = "rate_limiter_cleanup"

// Cleaner забывает неактивных клиентов ограничителя запросов.
type Cleaner interface {
	Cleanup() int
}

func RegisterLimiterCleanup(s *Service, cleaner Cleaner, interval time.Duration) error {
	_, err := s.AddIntervalJob(limiterCleanupJob, interval, func() {
		cleaner.Cleanup()
	})
	return err
}
