// Package jobs runs the dispatcher's scheduled sweeps on
// github.com/robfig/cron/v3 with second resolution.
//
// # Available Jobs
//
//  1. decline_unclaimed - declines pending orders no courier accepted within
//     the driver search window (DISPATCH_WINDOW) with "no drivers available".
//  2. auto_cancel_stale - cancels pending orders older than
//     STALE_PENDING_THRESHOLD.
//
// Both run ExpirePendingOrdersCommandHandler. A sweep that loses a race with
// a courier's accept skips that order; it is never an error.
//
// # Usage
//
//	decline, _ := jobs.NewDeclineUnclaimedJob(sweepHandler, 2*time.Minute, "", logger)
//	cancel, _ := jobs.NewAutoCancelStaleJob(sweepHandler, 30*time.Minute, "", logger)
//	manager := jobs.NewJobManager(decline, cancel)
//	if err := manager.StartAll(); err != nil {
//		log.Fatal(err)
//	}
//	defer manager.StopAll()
package jobs
