package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper is the minimal interface the scheduler needs from a rate limiter.
// Sweep drops idle state and returns how many entries were removed.
type Sweeper interface {
	Sweep() int
}

// Scheduler periodically runs a Sweeper so idle rate-limit buckets do not
// accumulate between requests.
type Scheduler struct {
	interval time.Duration
	sweeper  Sweeper
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that sweeps every interval.
// If interval <= 0 it defaults to 1 minute.
func NewScheduler(interval time.Duration, sweeper Sweeper, log *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		interval: interval,
		sweeper:  sweeper,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop in a background goroutine. Calling Start
// twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("bucket sweep scheduler started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("bucket sweep scheduler stopping")
			return
		case <-ticker.C:
			if removed := s.sweeper.Sweep(); removed > 0 {
				s.log.Debug().Int("removed", removed).Msg("swept idle rate-limit buckets")
			}
		}
	}
}

// Stop cancels the scheduler and waits for the loop to finish. Idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
}
