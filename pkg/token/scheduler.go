package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"

	"igsource/pkg/logger"
)

// Store persists tokens by account name. *auth.Manager satisfies it.
type Store interface {
	Token(name string) (string, error)
	UpdateToken(name, token string, expiresIn int64) error
}

// Scheduler refreshes the token of one account on a cron schedule
type Scheduler struct {
	refresher *Refresher
	store     Store
	account   string
	logger    logger.Logger

	mu       sync.Mutex
	cron     *cron.Cron
	done     chan struct{}
	runs     int
	failures int
	lastRun  time.Time
}

// Stats summarizes the scheduler's activity
type Stats struct {
	Runs     int
	Failures int
	LastRun  time.Time
}

// NewScheduler creates a scheduler for account. An empty account uses the
// store's default token.
func NewScheduler(refresher *Refresher, store Store, account string, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Scheduler{
		refresher: refresher,
		store:     store,
		account:   account,
		logger:    log.WithField("component", "token_scheduler"),
	}
}

// Start runs RunOnce on every tick of spec until Stop or ctx is done.
// spec accepts the robfig/cron formats, including "@every 720h".
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	c := cron.New()
	err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		_ = s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	done := make(chan struct{})
	s.done = done

	logger.LogComponentStart(s.logger, "token_scheduler", map[string]interface{}{
		"schedule": spec,
		"account":  s.account,
	})

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}()

	return nil
}

// Stop halts the schedule. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	done := s.done
	s.cron = nil
	s.done = nil
	s.mu.Unlock()

	if done != nil {
		close(done)
	}
	if c != nil {
		c.Stop()
		logger.LogComponentStop(s.logger, "token_scheduler", "stopped")
	}
}

// RunOnce refreshes the stored token and persists the result
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	s.runs++
	s.lastRun = time.Now()
	s.mu.Unlock()

	current, err := s.store.Token(s.account)
	if err != nil {
		s.fail()
		s.logger.WithError(err).Error("no stored token to refresh")
		return fmt.Errorf("failed to load token: %w", err)
	}

	result, ok := s.refresher.RefreshWithResult(ctx, current)
	if !ok {
		s.fail()
		return fmt.Errorf("token refresh failed")
	}

	if err := s.store.UpdateToken(s.account, result.AccessToken, result.ExpiresIn); err != nil {
		s.fail()
		s.logger.WithError(err).Error("failed to persist refreshed token")
		return fmt.Errorf("failed to persist token: %w", err)
	}

	return nil
}

// Stats returns a snapshot of run counters
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Runs: s.runs, Failures: s.failures, LastRun: s.lastRun}
}

func (s *Scheduler) fail() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}
