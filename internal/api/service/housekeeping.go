package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/wavecommons/soundvault/internal/api/store"
)

// HousekeepingService runs periodic maintenance: expired access tokens are
// purged, and sounds stranded at staging paths (a canonical move that never
// completed) are reported. Stranded files are only observed, never moved or
// deleted here.
type HousekeepingService struct {
	Store       store.Store
	Logger      *slog.Logger
	Interval    time.Duration
	StagingRoot string

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration, stagingRoot string) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:       st,
		Logger:      logger,
		Interval:    interval,
		StagingRoot: stagingRoot,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop terminates the worker and waits for an in-flight pass to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.runOnce()
	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Store.AccessTokens().DeleteExpiredAccessTokens(ctx, time.Now().UTC()); err != nil {
		s.Logger.Error("housekeeping: purge expired access tokens", "error", err)
	}

	misplaced, err := s.Store.Sounds().ListMisplaced(ctx, s.StagingRoot)
	if err != nil {
		s.Logger.Error("housekeeping: list misplaced sounds", "error", err)
		return
	}
	for _, snd := range misplaced {
		s.Logger.Warn("sound stranded at staging path",
			"sound_id", snd.ID,
			"path", snd.Path)
	}
}
