// Package janitor runs the periodic maintenance the core deliberately keeps
// out of its own goroutines: sweeping expired cache entries and flushing
// learning progress to the persistence adapter.
package janitor

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron"
)

// Sweeper removes expired entries and reports how many were removed.
type Sweeper interface {
	SweepExpired() int
}

// Flusher writes the current state to durable storage.
type Flusher interface {
	Flush() error
}

// Config sets the maintenance intervals. Zero values fall back to hourly
// sweeps and five-minute flushes.
type Config struct {
	SweepInterval time.Duration
	FlushInterval time.Duration
}

// Janitor manages the scheduled maintenance tasks for the application.
type Janitor struct {
	scheduler *gocron.Scheduler
	sweepers  []Sweeper
	flusher   Flusher
	cfg       Config
	logger    *log.Logger
}

// New creates a janitor instance over the given sweepers and flusher.
// Either may be empty/nil, disabling the corresponding job.
func New(cfg Config, sweepers []Sweeper, flusher Flusher, logger *log.Logger) *Janitor {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Janitor{
		scheduler: gocron.NewScheduler(time.UTC),
		sweepers:  sweepers,
		flusher:   flusher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start begins running all scheduled tasks in the background.
func (j *Janitor) Start() {
	if len(j.sweepers) > 0 {
		j.scheduler.Every(j.cfg.SweepInterval).Do(j.sweep)
	}
	if j.flusher != nil {
		j.scheduler.Every(j.cfg.FlushInterval).Do(j.flush)
	}
	j.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (j *Janitor) Stop() {
	j.scheduler.Stop()
}

func (j *Janitor) sweep() {
	total := 0
	for _, s := range j.sweepers {
		total += s.SweepExpired()
	}
	if total > 0 {
		j.logger.Info("swept expired cache entries", "removed", total)
	}
}

func (j *Janitor) flush() {
	if err := j.flusher.Flush(); err != nil {
		j.logger.Error("periodic flush failed", "err", err)
	}
}
