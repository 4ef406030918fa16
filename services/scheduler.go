// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSchedule runs the detector on a fixed cadence. Each run scans the full
// default lookback window, so overlapping runs re-see the same clusters; the
// tier-monotonic awarder makes that harmless.
func (d *GroupDetector) StartSchedule(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			report, err := d.Run(context.Background(), DefaultLookback)
			if err != nil {
				log.Printf("[GroupDetect] scheduled run failed: %v", err)
				return
			}
			log.Printf("[GroupDetect] considered=%d skipped=%d clusters=%d",
				report.Considered, report.Skipped, len(report.Clusters))
		}),
	)
}
