package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/earny00/steam-hidden-gem-hunter/config"
	"github.com/earny00/steam-hidden-gem-hunter/scraper"
	"github.com/robfig/cron/v3"
)

// Triggerable lets the scheduler nudge a background worker after a scan.
type Triggerable interface {
	Trigger()
}

// Scheduler reruns discovery for every configured region on a cron
// expression or fixed interval. Each pass goes through the cache first,
// so a same-day snapshot short-circuits the network scan.
type Scheduler struct {
	cfg          *config.Config
	orchestrator *scraper.Orchestrator
	cron         *cron.Cron
	ticker       *time.Ticker
	stopCh       chan struct{}

	mediaWorker Triggerable
}

func New(cfg *config.Config, orchestrator *scraper.Orchestrator) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		cron:         cron.New(),
		stopCh:       make(chan struct{}),
	}
}

// SetMediaWorker registers the artwork mirror for post-scan triggering.
func (s *Scheduler) SetMediaWorker(w Triggerable) {
	s.mediaWorker = w
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.ScanAll(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.ScanAll(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("no schedule configured, daemon will only serve one-shot commands")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

// ScanAll runs discovery for every region. Per-region failures are
// logged and do not stop the remaining regions.
func (s *Scheduler) ScanAll(ctx context.Context) {
	for code := range s.cfg.Regions {
		candidates, cached, err := s.orchestrator.LoadOrDiscover(ctx, code)
		if err != nil {
			log.Printf("scheduled scan error for %s: %v", code, err)
			continue
		}
		if cached {
			log.Printf("region %s: %d candidates (cached)", code, len(candidates))
		} else {
			log.Printf("region %s: %d candidates (fresh scan)", code, len(candidates))
		}
	}

	if s.mediaWorker != nil {
		s.mediaWorker.Trigger()
	}
}
