// Package syncer provides the fixed-interval poll loops that keep cache
// feeds reconciled with the backend while a consumer is active.
package syncer

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler runs a task once immediately and then on a fixed interval.
// The task runs inline in the loop goroutine, so at most one run is ever
// in flight; ticks that land while a run is still executing are dropped by
// the ticker, never queued. Stop cancels the task's context and waits for
// the loop to exit, so no result lands after teardown.
type Scheduler struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a stopped Scheduler.
func New(name string, interval time.Duration, task func(ctx context.Context) error) *Scheduler {
	return &Scheduler{name: name, interval: interval, task: task}
}

// Start launches the poll loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop cancels the loop and waits for it to exit. Stopping a stopped
// scheduler is a no-op. Consumers must call Stop when they go inactive;
// an uncancelled loop polls the network indefinitely.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.run(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.task(ctx); err != nil && ctx.Err() == nil {
		log.Printf("%s poll failed: %v", s.name, err)
	}
}
