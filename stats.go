package batchflow

import "time"

// Stats is a point-in-time view of the registry's cumulative counters.
// Per-job counters are folded in exactly once, on the job's terminal
// transition; polling never double-counts.
type Stats struct {
	TotalJobs           int           `json:"total_jobs"`
	CompletedJobs       int           `json:"completed_jobs"`
	FailedJobs          int           `json:"failed_jobs"`
	ActiveJobs          int           `json:"active_jobs"`
	TotalItemsProcessed int           `json:"total_items_processed"`
	AverageDuration     time.Duration `json:"average_duration"`
	SuccessRate         float64       `json:"success_rate"`
}

// Statistics returns the cumulative registry statistics. Completed
// includes completed_with_errors; failed includes cancelled. SuccessRate
// is completed over all terminal jobs, 0 when none have finished.
func (r *Registry) Statistics() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := 0
	for _, j := range r.jobs {
		if !j.Status().Terminal() {
			active++
		}
	}

	s := Stats{
		TotalJobs:           r.stats.totalJobs,
		CompletedJobs:       r.stats.completedJobs,
		FailedJobs:          r.stats.failedJobs,
		ActiveJobs:          active,
		TotalItemsProcessed: r.stats.itemsProcessed,
	}

	terminal := s.CompletedJobs + s.FailedJobs
	if terminal > 0 {
		s.AverageDuration = r.stats.durationSum / time.Duration(terminal)
		s.SuccessRate = float64(s.CompletedJobs) / float64(terminal)
	}

	return s
}
