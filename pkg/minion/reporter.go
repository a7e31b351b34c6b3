package minion

import (
	"context"
	"time"

	// Packages
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	prometheus "github.com/prometheus/client_golang/prometheus"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - REPORTING

// Stats returns the current queue-wide job, worker, and lock counters.
func (manager *Manager) Stats(ctx context.Context) (*schema.Stats, error) {
	var jobs schema.JobStatsRow
	if err := manager.conn.Get(ctx, &jobs, schema.JobStatsSelector{}); err != nil {
		return nil, err
	}
	var workers schema.WorkerStatsRow
	if err := manager.conn.Get(ctx, &workers, schema.WorkerStatsSelector{}); err != nil {
		return nil, err
	}
	var locks schema.LockStatsRow
	if err := manager.conn.Get(ctx, &locks, schema.LockStatsSelector{}); err != nil {
		return nil, err
	}
	return &schema.Stats{
		ActiveJobs:      jobs.ActiveJobs,
		InactiveJobs:    jobs.InactiveJobs,
		FailedJobs:      jobs.FailedJobs,
		FinishedJobs:    jobs.FinishedJobs,
		DelayedJobs:     jobs.DelayedJobs,
		EnqueuedJobs:    jobs.EnqueuedJobs,
		ActiveWorkers:   workers.ActiveWorkers,
		InactiveWorkers: workers.TotalWorkers - workers.ActiveWorkers,
		ActiveLocks:     locks.ActiveLocks,
		UptimeSeconds:   uint64(time.Since(manager.started).Seconds()),
	}, nil
}

// History returns the trailing 24 hourly buckets of finished and failed job
// counts, zero-filling any hour the store has no rows for.
func (manager *Manager) History(ctx context.Context) (*schema.History, error) {
	var rows schema.HistoryRows
	if err := manager.conn.List(ctx, &rows, schema.HistorySelector{}); err != nil {
		return nil, err
	}
	history := rows.Merge()
	return &history, nil
}

// Collector returns a prometheus.Collector reporting the manager's stats
// as gauges, suitable for registering on a metrics registry.
func (manager *Manager) Collector() prometheus.Collector {
	return &collector{
		manager: manager,
		jobs:    prometheus.NewDesc("minion_jobs", "Number of jobs by state", []string{"namespace", "state"}, nil),
		workers: prometheus.NewDesc("minion_workers", "Number of registered workers", []string{"namespace", "active"}, nil),
		locks:   prometheus.NewDesc("minion_locks", "Number of active named locks", []string{"namespace"}, nil),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE TYPES

type collector struct {
	manager *Manager
	jobs    *prometheus.Desc
	workers *prometheus.Desc
	locks   *prometheus.Desc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.jobs
	ch <- c.workers
	ch <- c.locks
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := c.manager.Stats(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.jobs, err)
		return
	}

	ns := c.manager.Namespace()
	ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(stats.ActiveJobs), ns, "active")
	ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(stats.InactiveJobs), ns, "inactive")
	ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(stats.FailedJobs), ns, "failed")
	ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(stats.FinishedJobs), ns, "finished")
	ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(stats.DelayedJobs), ns, "delayed")
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(stats.ActiveWorkers), ns, "true")
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(stats.InactiveWorkers), ns, "false")
	ch <- prometheus.MustNewConstMetric(c.locks, prometheus.GaugeValue, float64(stats.ActiveLocks), ns)
}
