package jobs

import (
	"fmt"
)

// JobManager starts and stops the scheduled sweeps together.
type JobManager struct {
	jobs []*SweepJob
}

// NewJobManager groups jobs in the order they are started.
func NewJobManager(jobs ...*SweepJob) *JobManager {
	return &JobManager{jobs: jobs}
}

// StartAll starts every job. If one fails the already started ones are
// stopped again.
func (jm *JobManager) StartAll() error {
	for i, job := range jm.jobs {
		if err := job.Start(); err != nil {
			for _, started := range jm.jobs[:i] {
				started.Stop()
			}
			return fmt.Errorf("failed to start %s job: %w", job.Name(), err)
		}
	}
	return nil
}

// StopAll stops every job and waits for running sweeps.
func (jm *JobManager) StopAll() {
	for _, job := range jm.jobs {
		job.Stop()
	}
}
