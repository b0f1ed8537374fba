// Package scheduler runs scheduled dispatch operations on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/dispatch"
)

// Dispatcher runs one operation; *dispatch.Gateway satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, declared map[string]any, userID int64) (*dispatch.Result, error)
}

type job struct {
	name  string
	every time.Duration
}

type Scheduler struct {
	dispatcher Dispatcher
	jobs       []job
	logger     logging.Logger
}

// New builds a scheduler for the operations of registry. schedule maps an
// operation name to its interval; a zero interval disables the job and a
// name missing from registry is an error.
func New(d Dispatcher, registry *dispatch.Registry, schedule map[string]time.Duration, l logging.Logger) (*Scheduler, error) {
	s := &Scheduler{dispatcher: d, logger: l.With("module", "scheduler")}

	for name, every := range schedule {
		if _, ok := registry.Lookup(name); !ok {
			return nil, fmt.Errorf("schedule: unknown operation %q", name)
		}
		if every < 0 {
			return nil, fmt.Errorf("schedule: negative interval for %q", name)
		}
		if every == 0 {
			continue
		}
		s.jobs = append(s.jobs, job{name: name, every: every})
	}
	sort.Slice(s.jobs, func(i, j int) bool { return s.jobs[i].name < s.jobs[j].name })

	return s, nil
}

// Jobs lists the enabled operations.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.name
	}
	return names
}

// Run starts one loop per job and blocks until ctx is cancelled and every
// loop has returned.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info(ctx, "Starting scheduler", "jobs", s.Jobs())

	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			s.loop(ctx, j)
		}(j)
	}
	wg.Wait()

	s.logger.Info(ctx, "Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx, j.name)
		}
	}
}

// RunOnce dispatches the named operation immediately. Failures are logged
// and returned; the next tick runs the job again.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	start := time.Now()
	if _, err := s.dispatcher.Dispatch(ctx, name, nil, 0); err != nil {
		s.logger.Error(ctx, "scheduled operation failed", "operation", name, "error", err)
		return err
	}
	s.logger.Info(ctx, "scheduled operation done", "operation", name, "duration", time.Since(start))
	return nil
}
