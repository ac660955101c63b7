package infrastructure

import (
	"context"
	"time"

	"project_canvass/internal/interfaces"

	"go.uber.org/zap"
)

// SessionSweeper reclaims expired and idle sessions in the background.
// Login's own cleanup pass remains authoritative; the sweeper just bounds
// how long a dead session can occupy an account's slot when nobody logs in.
type SessionSweeper struct {
	sessions   interfaces.SessionStore
	interval   time.Duration
	inactivity time.Duration
	logger     *zap.Logger
	stop       chan struct{}
}

func NewSessionSweeper(sessions interfaces.SessionStore, interval, inactivity time.Duration, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions:   sessions,
		interval:   interval,
		inactivity: inactivity,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

func (s *SessionSweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
	s.logger.Info("session sweeper started", zap.Duration("interval", s.interval))
}

func (s *SessionSweeper) Stop() {
	close(s.stop)
}

func (s *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.sessions.CleanupExpired(ctx, s.inactivity)
	if err != nil {
		s.logger.Warn("session sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("swept stale sessions", zap.Int64("count", n))
	}
}
