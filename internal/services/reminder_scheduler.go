package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shuttlebus/internal/metrics"
	"shuttlebus/internal/utils"
)

const DefaultReminderInterval = time.Minute

// ReminderScheduler periodically reminds holders of trips departing within Window.
// The trip's notification flag is the only checkpoint, so a restart simply rescans.
type ReminderScheduler struct {
	Trips    ReminderStore
	Notifier Notifier
	Interval time.Duration
	Window   time.Duration
	Now      func() time.Time

	mu        sync.RWMutex
	isRunning bool
	cancelFn  context.CancelFunc
	done      chan struct{}
}

// TickResult summarizes one scan.
type TickResult struct {
	Due      int
	Reminded int
	Deferred int
	Failed   int
}

func NewReminderScheduler(trips ReminderStore, notifier Notifier, interval, window time.Duration) *ReminderScheduler {
	if interval <= 0 {
		interval = DefaultReminderInterval
	}
	if window <= 0 {
		window = DefaultReminderWindow
	}
	return &ReminderScheduler{Trips: trips, Notifier: notifier, Interval: interval, Window: window}
}

// Start runs a scan immediately and then once per Interval until Stop or ctx ends.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("reminder scheduler is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel
	s.done = make(chan struct{})
	s.isRunning = true

	utils.Log().Info().Dur("interval", s.Interval).Dur("window", s.Window).Msg("starting reminder scheduler")
	go s.loop(ctx, s.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight scan to finish.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	utils.Log().Info().Msg("stopping reminder scheduler")
	s.cancelFn()
	done := s.done
	s.isRunning = false
	s.mu.Unlock()

	<-done
	utils.Log().Info().Msg("reminder scheduler stopped")
}

func (s *ReminderScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *ReminderScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.Tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick scans once. Each due trip is claimed with a single conditional update before
// the reminder is sent, so concurrent schedulers never remind the same trip twice. A
// trip whose reminder had no recipients is released for a later scan.
func (s *ReminderScheduler) Tick(ctx context.Context) TickResult {
	var res TickResult
	if ctx.Err() != nil {
		return res
	}
	metrics.ReminderTicksTotal.Inc()
	// Once started, the trip loop runs to completion.
	ctx = context.WithoutCancel(ctx)

	now := clock(s.Now).now()
	ids, err := s.Trips.ListDueForReminder(ctx, now, now.Add(s.Window))
	if err != nil {
		utils.Log().Error().Err(err).Msg("reminder scan failed")
		return res
	}
	res.Due = len(ids)

	for _, id := range ids {
		claimed, err := s.Trips.ClaimReminder(ctx, id)
		if err != nil {
			res.Failed++
			utils.Log().Error().Err(err).Str("trip_id", id).Msg("reminder claim failed")
			continue
		}
		if !claimed {
			continue
		}

		n, err := s.Notifier.Deliver(ctx, PeriodicReminderEvent{TripID: id})
		if err != nil {
			// The trip stays marked: reminders are attempted at most once.
			res.Failed++
			utils.Log().Error().Err(err).Str("trip_id", id).Int("recipients", n).Msg("reminder delivery failed")
		}
		if n == 0 {
			if err := s.Trips.ReleaseReminder(ctx, id); err != nil {
				utils.Log().Error().Err(err).Str("trip_id", id).Msg("reminder release failed")
			}
			res.Deferred++
			continue
		}
		res.Reminded++
		metrics.RemindersMarkedTotal.Inc()
	}

	if res.Due > 0 {
		utils.Log().Info().
			Int("due", res.Due).
			Int("reminded", res.Reminded).
			Int("deferred", res.Deferred).
			Int("failed", res.Failed).
			Msg("reminder scan finished")
	}
	return res
}
