package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type refreshRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRefreshRecorder() *refreshRecorder {
	return &refreshRecorder{counts: make(map[string]int)}
}

func (r *refreshRecorder) refresh(ctx context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[groupID]++
	return nil
}

func (r *refreshRecorder) count(groupID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[groupID]
}

func (p *GroupPoller) activeLoops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loops)
}

func TestGroupPollerStartsLoopOnFirstAcquire(t *testing.T) {
	rec := newRefreshRecorder()
	p := NewGroupPoller(10*time.Millisecond, rec.refresh)
	defer p.StopAll()

	p.Acquire("g1")
	require.Equal(t, 1, p.activeLoops())
	require.Eventually(t, func() bool { return rec.count("g1") >= 2 }, time.Second, 5*time.Millisecond)
}

func TestGroupPollerRefcountsSubscribers(t *testing.T) {
	rec := newRefreshRecorder()
	p := NewGroupPoller(10*time.Millisecond, rec.refresh)
	defer p.StopAll()

	p.Acquire("g1")
	p.Acquire("g1")
	require.Equal(t, 1, p.activeLoops())

	p.Release("g1")
	require.Equal(t, 1, p.activeLoops())

	p.Release("g1")
	require.Equal(t, 0, p.activeLoops())

	after := rec.count("g1")
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, after, rec.count("g1"))
}

func TestGroupPollerReleaseUnknownGroupIsNoop(t *testing.T) {
	p := NewGroupPoller(time.Hour, newRefreshRecorder().refresh)
	p.Release("never-acquired")
	require.Equal(t, 0, p.activeLoops())
}

func TestGroupPollerRunsIndependentLoopsPerGroup(t *testing.T) {
	rec := newRefreshRecorder()
	p := NewGroupPoller(10*time.Millisecond, rec.refresh)
	defer p.StopAll()

	p.Acquire("g1")
	p.Acquire("g2")
	require.Equal(t, 2, p.activeLoops())

	require.Eventually(t, func() bool {
		return rec.count("g1") >= 1 && rec.count("g2") >= 1
	}, time.Second, 5*time.Millisecond)

	p.Release("g1")
	require.Equal(t, 1, p.activeLoops())
}

func TestGroupPollerStopAll(t *testing.T) {
	rec := newRefreshRecorder()
	p := NewGroupPoller(10*time.Millisecond, rec.refresh)

	p.Acquire("g1")
	p.Acquire("g2")
	p.StopAll()
	require.Equal(t, 0, p.activeLoops())

	// Acquire after StopAll starts a fresh loop.
	p.Acquire("g1")
	require.Equal(t, 1, p.activeLoops())
	p.StopAll()
}
