package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

type Task func(ctx context.Context) error

// Job is a named task run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Task     Task
	// Immediate runs the task once at start instead of after the first tick.
	Immediate bool
}

// Every runs task on every tick until ctx is done. A failing run is logged
// and does not stop later runs.
func Every(ctx context.Context, interval time.Duration, name string, immediate bool, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	if immediate {
		run(ctx, name, task)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run(ctx, name, task)
		}
	}
}

func run(ctx context.Context, name string, task Task) {
	if err := task(ctx); err != nil {
		log.Printf("[%s] error: %v", name, err)
	}
}

// Start launches every job in its own goroutine. The returned func cancels
// them and waits for in-flight runs to finish.
func Start(ctx context.Context, jobs ...Job) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, j := range jobs {
		if j.Interval <= 0 {
			log.Printf("[%s] disabled: interval %s", j.Name, j.Interval)
			continue
		}
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			Every(ctx, j.Interval, j.Name, j.Immediate, j.Task)
		}(j)
	}
	return func() {
		cancel()
		wg.Wait()
	}
}
