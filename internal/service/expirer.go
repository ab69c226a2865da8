package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSweepInterval = 1 * time.Minute

// Purger is satisfied by *cache.ReportCache.
type Purger interface {
	Purge() int
}

// CacheSweeper periodically drops expired in-memory report cache entries.
// Expired entries are never served either way; this only bounds memory.
type CacheSweeper struct {
	cache  Purger
	logger *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewCacheSweeper(cache Purger, logger *zap.Logger) *CacheSweeper {
	return &CacheSweeper{
		cache:    cache,
		logger:   logger,
		interval: defaultSweepInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *CacheSweeper) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the sweeper on a periodic schedule in a background goroutine.
func (s *CacheSweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("report cache sweeper started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopCh:
				s.logger.Info("report cache sweeper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweeper.
func (s *CacheSweeper) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *CacheSweeper) run() {
	if removed := s.cache.Purge(); removed > 0 {
		s.logger.Debug("purged expired report cache entries", zap.Int("count", removed))
	}
}
