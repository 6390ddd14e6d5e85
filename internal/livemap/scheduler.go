package livemap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
	"github.com/arbadacarbaYK/sociostr/internal/logging"
	"github.com/arbadacarbaYK/sociostr/internal/reporting"
)

// UserProvider fetches a batch of user records from the backend. A nil since
// requests the full historical set; a non-nil since requests only activity
// after that time.
type UserProvider interface {
	FetchUsers(ctx context.Context, since *time.Time) ([]domain.UserRecord, error)
}

// CycleStatsRepository persists per-cycle statistics history.
type CycleStatsRepository interface {
	StoreCycleStats(ctx context.Context, stats domain.CycleStats) error
}

// Snapshot is what the presentation layer sees. It is an immutable copy;
// readers never observe the store mid-cycle.
type Snapshot struct {
	Users         []domain.UserRecord
	Stats         domain.Stats
	Fetching      bool
	Error         string
	LastUpdatedAt time.Time
}

type cycleMode string

const (
	cycleManual cycleMode = "manual"
	cycleAuto   cycleMode = "auto"
)

const (
	// DefaultTTL is how long a record may go unconfirmed before eviction.
	DefaultTTL = 5 * time.Minute
	// DefaultPeriod is the auto-update polling period.
	DefaultPeriod = 2 * time.Minute
)

// FetchScheduler owns the record store, the fetch cursor and the auto-update
// timer. It is the single entry point that turns fetch results into store
// updates: every cycle runs merge, evict and aggregate in order and then
// publishes the result.
//
// The scheduler is either idle or fetching. A new cycle cannot begin while
// one is outstanding; timer ticks arriving during a fetch are dropped, not
// queued. Each cycle captures a generation at start, and its result is
// discarded unless the generation still matches when the fetch resolves, so
// results arriving after Teardown or after a newer manual load never
// resurrect stale state.
type FetchScheduler struct {
	provider UserProvider
	history  CycleStatsRepository

	ttl     time.Duration
	period  time.Duration
	nowFunc func() time.Time

	mu            sync.Mutex
	fetching      bool
	tornDown      bool
	generation    uint64
	autoUpdate    bool
	store         RecordStore
	stats         domain.Stats
	cursor        *time.Time
	lastUpdatedAt time.Time
	userErr       string
	stopTimer     func()
	listeners     []func(Snapshot)
}

type SchedulerOptions struct {
	TTL     time.Duration
	Period  time.Duration
	NowFunc func() time.Time
}

func NewFetchScheduler(provider UserProvider, history CycleStatsRepository, opts SchedulerOptions) *FetchScheduler {
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Period == 0 {
		opts.Period = DefaultPeriod
	}
	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}
	return &FetchScheduler{
		provider:   provider,
		history:    history,
		ttl:        opts.TTL,
		period:     opts.Period,
		nowFunc:    opts.NowFunc,
		autoUpdate: true,
		store:      make(RecordStore),
	}
}

// Subscribe registers a listener that receives every published snapshot.
// Listeners are called synchronously while the scheduler lock is not held.
func (s *FetchScheduler) Subscribe(listener func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Snapshot returns the currently published state.
func (s *FetchScheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *FetchScheduler) snapshotLocked() Snapshot {
	return Snapshot{
		Users:         s.store.Records(),
		Stats:         s.stats,
		Fetching:      s.fetching,
		Error:         s.userErr,
		LastUpdatedAt: s.lastUpdatedAt,
	}
}

func (s *FetchScheduler) publishLocked() (Snapshot, []func(Snapshot)) {
	snapshot := s.snapshotLocked()
	listeners := make([]func(Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	return snapshot, listeners
}

func notify(listeners []func(Snapshot), snapshot Snapshot) {
	for _, listener := range listeners {
		listener(snapshot)
	}
}

// TriggerManualLoad runs a full-replace cycle: it clears the store and any
// previous error, fetches the full set from the backend and replaces the
// store wholesale. On success the auto-update timer is (re)started. Rejected
// with domain.ErrFetchInProgress while another cycle is outstanding.
//
// An empty result surfaces domain.ErrNoUsersFound to the caller and leaves
// the timer alone.
func (s *FetchScheduler) TriggerManualLoad(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return domain.ErrSchedulerTornDown
	}
	if s.fetching {
		s.mu.Unlock()
		return domain.ErrFetchInProgress
	}
	s.fetching = true
	s.generation++
	generation := s.generation
	s.store = make(RecordStore)
	s.stats = domain.Stats{}
	s.userErr = ""
	snapshot, listeners := s.publishLocked()
	s.mu.Unlock()
	notify(listeners, snapshot)

	cycleStart := s.nowFunc()
	users, err := s.provider.FetchUsers(ctx, nil)

	s.mu.Lock()
	if s.generation != generation || s.tornDown {
		// A newer cycle or a teardown happened while the fetch was
		// outstanding. Applying this result would resurrect removed state.
		s.mu.Unlock()
		logger.Info("Discarding stale manual load result")
		return domain.ErrSchedulerTornDown
	}
	s.fetching = false

	if err != nil {
		s.userErr = "failed to load users"
		snapshot, listeners := s.publishLocked()
		s.mu.Unlock()
		notify(listeners, snapshot)
		return fmt.Errorf("manual load failed: %w", err)
	}

	if len(users) == 0 {
		s.userErr = "no users found"
		snapshot, listeners := s.publishLocked()
		s.mu.Unlock()
		notify(listeners, snapshot)
		return domain.ErrNoUsersFound
	}

	now := s.nowFunc()
	s.store = Evict(Merge(s.store, users, MergeFullReplace, now), now, s.ttl)
	s.stats = Aggregate(s.store)
	s.cursor = &cycleStart
	s.lastUpdatedAt = now
	stats := s.stats
	if s.autoUpdate {
		s.startTimerLocked()
	}
	snapshot, listeners = s.publishLocked()
	s.mu.Unlock()
	notify(listeners, snapshot)

	recordCycleMetrics(ctx, cycleManual, len(users), snapshot.Stats)
	s.persistCycleStats(ctx, cycleManual, now, stats)

	logger.Info("Manual load complete",
		"users", len(users),
		"totalUsers", stats.TotalUsers,
		"usersWithLocation", stats.UsersWithLocation,
	)
	return nil
}

// TriggerAutoCycle is invoked by the timer. It is a no-op while a fetch is
// outstanding or when auto-update is disabled. Failures are logged but never
// surfaced to the user, and the store is left untouched.
func (s *FetchScheduler) TriggerAutoCycle(ctx context.Context) {
	logger := logging.FromContext(ctx)

	s.mu.Lock()
	if s.tornDown || s.fetching || !s.autoUpdate {
		s.mu.Unlock()
		return
	}
	s.fetching = true
	s.generation++
	generation := s.generation
	since := s.cursor
	s.mu.Unlock()

	cycleStart := s.nowFunc()
	users, err := s.provider.FetchUsers(ctx, since)

	s.mu.Lock()
	if s.generation != generation || s.tornDown {
		s.mu.Unlock()
		logger.Info("Discarding stale auto cycle result")
		return
	}
	s.fetching = false

	if err != nil {
		s.mu.Unlock()
		logger.Error("Auto cycle failed", "error", err.Error())
		reporting.Report(ctx, fmt.Errorf("auto cycle failed: %w", err))
		return
	}

	now := s.nowFunc()
	s.store = Evict(Merge(s.store, users, MergeIncremental, now), now, s.ttl)
	s.stats = Aggregate(s.store)
	s.cursor = &cycleStart
	s.lastUpdatedAt = now
	stats := s.stats
	snapshot, listeners := s.publishLocked()
	s.mu.Unlock()
	notify(listeners, snapshot)

	recordCycleMetrics(ctx, cycleAuto, len(users), snapshot.Stats)
	s.persistCycleStats(ctx, cycleAuto, now, stats)

	logger.Info("Auto cycle complete",
		"newOrTouched", len(users),
		"totalUsers", stats.TotalUsers,
	)
}

// SetAutoUpdateEnabled starts the timer when enabling with a non-empty store
// and stops it when disabling.
func (s *FetchScheduler) SetAutoUpdateEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tornDown {
		return
	}
	s.autoUpdate = enabled
	if enabled {
		if len(s.store) > 0 {
			s.startTimerLocked()
		}
	} else {
		s.stopTimerLocked()
	}
}

// AutoUpdateEnabled reports whether timer-driven cycles are enabled.
func (s *FetchScheduler) AutoUpdateEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoUpdate
}

// Teardown stops the timer and invalidates any outstanding fetch so its
// result is discarded when it resolves. Idempotent.
func (s *FetchScheduler) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tornDown = true
	s.generation++
	s.stopTimerLocked()
}

// startTimerLocked replaces any running timer with a fresh one. There is at
// most one active timer per scheduler; starting always cancels the prior one.
func (s *FetchScheduler) startTimerLocked() {
	s.stopTimerLocked()

	done := make(chan struct{})
	s.stopTimer = func() { close(done) }

	go func() {
		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.TriggerAutoCycle(context.Background())
			}
		}
	}()
}

func (s *FetchScheduler) stopTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

// persistCycleStats stores stats history outside the cycle's critical path.
// Failures are reported but never fail the cycle.
func (s *FetchScheduler) persistCycleStats(ctx context.Context, mode cycleMode, cycleAt time.Time, stats domain.Stats) {
	if s.history == nil {
		return
	}

	// Ignore cancellations from the caller and try to store anyway, but take
	// at most 1 second
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 1*time.Second)
	defer cancel()

	err := s.history.StoreCycleStats(storeCtx, domain.CycleStats{
		CycleAt:              cycleAt,
		Mode:                 string(mode),
		TotalUsers:           stats.TotalUsers,
		UsersWithLocation:    stats.UsersWithLocation,
		UniqueLocationGroups: stats.UniqueLocationGroups,
	})
	if err != nil {
		logging.FromContext(ctx).Error("failed to store cycle stats", "error", err.Error())
		reporting.Report(ctx, fmt.Errorf("failed to store cycle stats: %w", err))
	}
}
