package syncer

import (
	"context"
	"sync"
	"time"
)

// GroupPoller reference-counts chat refresh loops per group: the loop for a
// group starts when its first subscriber attaches and stops when the last
// one detaches, mirroring a screen's focus lifecycle.
type GroupPoller struct {
	interval time.Duration
	refresh  func(ctx context.Context, groupID string) error

	mu    sync.Mutex
	refs  map[string]int
	loops map[string]*Scheduler
}

// NewGroupPoller constructs a GroupPoller around a per-group refresh task.
func NewGroupPoller(interval time.Duration, refresh func(ctx context.Context, groupID string) error) *GroupPoller {
	return &GroupPoller{
		interval: interval,
		refresh:  refresh,
		refs:     make(map[string]int),
		loops:    make(map[string]*Scheduler),
	}
}

// Acquire registers a subscriber for the group, starting its poll loop if
// it is the first.
func (p *GroupPoller) Acquire(groupID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.refs[groupID]++
	if p.refs[groupID] > 1 {
		return
	}

	loop := New("chat:"+groupID, p.interval, func(ctx context.Context) error {
		return p.refresh(ctx, groupID)
	})
	p.loops[groupID] = loop
	loop.Start()
}

// Release drops a subscriber, stopping the group's loop when none remain.
func (p *GroupPoller) Release(groupID string) {
	p.mu.Lock()
	refs, ok := p.refs[groupID]
	if !ok {
		p.mu.Unlock()
		return
	}
	refs--
	var loop *Scheduler
	if refs <= 0 {
		delete(p.refs, groupID)
		loop = p.loops[groupID]
		delete(p.loops, groupID)
	} else {
		p.refs[groupID] = refs
	}
	p.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}
}

// StopAll tears down every running loop, for shutdown.
func (p *GroupPoller) StopAll() {
	p.mu.Lock()
	loops := make([]*Scheduler, 0, len(p.loops))
	for _, loop := range p.loops {
		loops = append(loops, loop)
	}
	p.refs = make(map[string]int)
	p.loops = make(map[string]*Scheduler)
	p.mu.Unlock()

	for _, loop := range loops {
		loop.Stop()
	}
}
