package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"TaseTracker/internal/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	refreshes atomic.Int32
	digests   atomic.Int32
	commands  atomic.Int32
}

func (f *fakeTracker) RefreshAll(context.Context) int {
	f.refreshes.Add(1)
	return 1
}

func (f *fakeTracker) Digest(context.Context) error {
	f.digests.Add(1)
	return nil
}

func (f *fakeTracker) HandleCommand(_ context.Context, chatID, text string) notifier.Reply {
	f.commands.Add(1)
	return notifier.Reply{Text: chatID + ":" + text}
}

func TestRegisterAll_RejectsBadCron(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeTracker{}, time.Second, nil)
	assert.Error(t, s.RegisterAll(false, "not a cron"))
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeTracker{}, 30*time.Second, nil)
	require.NoError(t, s.RegisterAll(true, "0 30 16 * * 0-4"))
	assert.Len(t, s.Cron.Entries(), 2)

	s.DisableRefresh()
	assert.Len(t, s.Cron.Entries(), 1)
	assert.True(t, s.NextRefresh().IsZero())
}

func TestPreemptRestartsTimer(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeTracker{}, 30*time.Second, nil)
	s.Preempt()
	assert.Empty(t, s.Cron.Entries(), "preempt does nothing while disabled")

	s.EnableRefresh()
	first := s.refreshID
	s.Preempt()
	assert.NotEqual(t, first, s.refreshID)
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestHandleCommandPreempts(t *testing.T) {
	tr := &fakeTracker{}
	s := NewScheduler(context.Background(), tr, 30*time.Second, nil)
	s.EnableRefresh()
	before := s.refreshID

	reply := s.HandleCommand(context.Background(), "42", "/status")
	assert.Equal(t, "42:/status", reply.Text)
	assert.NotEqual(t, before, s.refreshID)
	assert.Equal(t, int32(1), tr.commands.Load())
}

func TestRefreshTimerFires(t *testing.T) {
	tr := &fakeTracker{}
	s := NewScheduler(context.Background(), tr, time.Second, nil)
	require.NoError(t, s.RegisterAll(true, ""))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return tr.refreshes.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
	assert.False(t, s.NextRefresh().IsZero())
}

func TestTasksDelegate(t *testing.T) {
	tr := &fakeTracker{}
	s := NewScheduler(context.Background(), tr, time.Second, nil)
	s.refreshTask()
	s.digestTask()
	assert.Equal(t, int32(1), tr.refreshes.Load())
	assert.Equal(t, int32(1), tr.digests.Load())
}
