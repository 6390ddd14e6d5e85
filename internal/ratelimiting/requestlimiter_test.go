package ratelimiting

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mockedTime struct {
	t           *testing.T
	currentTime time.Time
	timers      []mockedTimer
	lock        sync.Mutex
}

type mockedTimer struct {
	expiresAt time.Time
	ch        chan<- time.Time
}

func newMockedTime(t *testing.T, start time.Time) *mockedTime {
	return &mockedTime{
		t:           t,
		currentTime: start,
		timers:      []mockedTimer{},
		lock:        sync.Mutex{},
	}
}

func (m *mockedTime) Now() time.Time {
	m.t.Helper()
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.currentTime
}

func (m *mockedTime) After(d time.Duration) <-chan time.Time {
	m.t.Helper()
	m.lock.Lock()
	defer m.lock.Unlock()

	ch := make(chan time.Time, 1)
	m.timers = append(m.timers, mockedTimer{
		expiresAt: m.currentTime.Add(d),
		ch:        ch,
	})
	return ch
}

func (m *mockedTime) Advance(d time.Duration) {
	m.t.Helper()
	m.lock.Lock()
	defer m.lock.Unlock()

	m.currentTime = m.currentTime.Add(d)

	remaining := m.timers[:0]
	for _, timer := range m.timers {
		if !timer.expiresAt.After(m.currentTime) {
			timer.ch <- m.currentTime
		} else {
			remaining = append(remaining, timer)
		}
	}
	m.timers = remaining
}

func TestWindowLimitRequestLimiter(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	t.Run("first requests up to the limit run without waiting", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(t, start)
		limiter := NewWindowLimitRequestLimiter(3, time.Minute, clock.Now, clock.After)

		ran := 0
		for i := 0; i < 3; i++ {
			require.True(t, limiter.Limit(context.Background(), 0, func() { ran++ }))
		}
		require.Equal(t, 3, ran)
	})

	t.Run("request past the limit waits for the window", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(t, start)
		limiter := NewWindowLimitRequestLimiter(1, time.Minute, clock.Now, clock.After)

		require.True(t, limiter.Limit(context.Background(), 0, func() {}))

		done := make(chan bool, 1)
		go func() {
			done <- limiter.Limit(context.Background(), 0, func() {})
		}()

		select {
		case <-done:
			t.Fatal("second request should have waited for the window")
		case <-time.After(10 * time.Millisecond):
		}

		// Keep advancing in case the waiter registered its timer late
		for {
			select {
			case ok := <-done:
				require.True(t, ok)
				return
			case <-time.After(5 * time.Millisecond):
				clock.Advance(time.Minute)
				runtime.Gosched()
			}
		}
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(t, start)
		limiter := NewWindowLimitRequestLimiter(1, time.Minute, clock.Now, clock.After)

		require.True(t, limiter.Limit(context.Background(), 0, func() {}))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan bool, 1)
		go func() {
			done <- limiter.Limit(ctx, 0, func() { t.Error("operation should not run") })
		}()

		cancel()
		require.False(t, <-done)
	})

	t.Run("deadline too close to fit wait and operation aborts early", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(t, start)
		limiter := NewWindowLimitRequestLimiter(1, time.Minute, clock.Now, clock.After)

		require.True(t, limiter.Limit(context.Background(), 0, func() {}))

		// The limiter would need to wait a full minute, far past the deadline
		ctx, cancel := context.WithDeadline(context.Background(), start.Add(time.Second))
		defer cancel()

		require.False(t, limiter.Limit(ctx, time.Second, func() { t.Error("operation should not run") }))
	})

	t.Run("aborted request does not consume a slot", func(t *testing.T) {
		t.Parallel()

		clock := newMockedTime(t, start)
		limiter := NewWindowLimitRequestLimiter(1, time.Minute, clock.Now, clock.After)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.False(t, limiter.Limit(ctx, 0, func() {}))

		require.True(t, limiter.Limit(context.Background(), 0, func() {}))
	})
}
