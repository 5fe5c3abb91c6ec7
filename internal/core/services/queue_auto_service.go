package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds one scheduled sweep across all lanes
const sweepTimeout = 30 * time.Second

// Sweeper expires stale tokens across every live lane
type Sweeper interface {
	SweepAll(ctx context.Context) (int, error)
}

// ============================================================
// Scheduled expiry sweep
// ============================================================

// QueueAutoService runs the expiry sweep on a cron schedule
type QueueAutoService struct {
	sweeper  Sweeper
	schedule string
	cron     *cron.Cron
}

// NewQueueAutoService creates a new auto service
func NewQueueAutoService(sweeper Sweeper, schedule string) *QueueAutoService {
	return &QueueAutoService{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start registers the sweep and starts the scheduler
func (s *QueueAutoService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Printf("🚀 QueueAutoService started [%s]", s.schedule)
	return nil
}

// Stop waits for a running sweep to finish
func (s *QueueAutoService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 QueueAutoService stopped")
}

// RunOnce sweeps every live lane once
func (s *QueueAutoService) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.sweeper.SweepAll(ctx)
	if err != nil {
		log.Printf("❌ Scheduled sweep error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("🗑️ Scheduled sweep expired %d tokens", n)
	}
}
