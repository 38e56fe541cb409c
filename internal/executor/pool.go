// Package executor runs prepared experiment units: a bounded worker pool
// for the launch as a whole and a subprocess episode runner for each unit.
package executor

import (
	"context"
	"sync"
)

// RunAll executes jobs across at most maxWorkers goroutines and blocks
// until every started job has returned. No completion order is guaranteed
// and no results are collected; each job records its own outcome. Jobs not
// yet started when ctx is canceled are skipped.
func RunAll(ctx context.Context, jobs []func(context.Context), maxWorkers int) {
	if len(jobs) == 0 {
		return
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers > len(jobs) {
		maxWorkers = len(jobs)
	}

	queue := make(chan func(context.Context))
	var wg sync.WaitGroup
	wg.Add(maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		go func() {
			defer wg.Done()
			for job := range queue {
				job(ctx)
			}
		}()
	}

submit:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break submit
		case queue <- job:
		}
	}
	close(queue)
	wg.Wait()
}
