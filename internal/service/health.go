package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/adventskalender/backend/internal/backoff"
	"github.com/adventskalender/backend/internal/healthcheck"
	"github.com/adventskalender/backend/internal/logging"
)

// HealthService probes database liveness and forwards the result to the
// external monitor through the backoff gate, so a steady state does not
// flood the monitor on every probe.
type HealthService struct {
	DB       *gorm.DB
	Gate     *backoff.Gate
	Notifier *healthcheck.Notifier
}

func (s *HealthService) Check(ctx context.Context) bool {
	l := logging.FromContext(ctx).With("svc", "health.check")

	healthy := s.probe(ctx)

	if s.Notifier != nil {
		s.Gate.Call(func() {
			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()

			var err error
			if healthy {
				err = s.Notifier.Healthy(notifyCtx)
			} else {
				err = s.Notifier.Unhealthy(notifyCtx)
			}
			if err != nil {
				l.Warn("monitor_notify_failed", "healthy", healthy, "error", err)
			}
		})
	}

	return healthy
}

func (s *HealthService) probe(ctx context.Context) bool {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx) == nil
}
