package cron

import (
	"context"
	"log"
	"time"

	"github.com/Azzc0/fika-guild.xyz/service"
)

// SummaryRefreshJob periodically rebuilds the session summary cache while the
// server runs, so presentation reads keep up with imports done from the CLI.
type SummaryRefreshJob struct {
	summaryService *service.SummaryService
	interval       time.Duration
	cancel         context.CancelFunc
}

func NewSummaryRefreshJob(summaryService *service.SummaryService, interval time.Duration) *SummaryRefreshJob {
	return &SummaryRefreshJob{
		summaryService: summaryService,
		interval:       interval,
	}
}

func (j *SummaryRefreshJob) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := j.summaryService.Refresh(); err != nil {
					log.Printf("summary refresh failed: %v", err)
				}
			}
		}
	}()
}

func (j *SummaryRefreshJob) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
}
