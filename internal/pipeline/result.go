package pipeline

import "time"

// Result describes what happened to each task in one run.
type Result struct {
	// RunID identifies the run in logs and spans.
	RunID string
	// Completed lists successful tasks in completion order.
	Completed []Task
	// Failed lists tasks that returned an error, in completion order.
	Failed []Task
	// Skipped lists tasks that never started, in topological order.
	Skipped []Task
	// Durations holds the run time of every task that started.
	Durations map[Task]time.Duration
}

// Succeeded reports whether every task completed.
func (r *Result) Succeeded() bool {
	return len(r.Failed) == 0 && len(r.Skipped) == 0
}

// run is the per-execution bookkeeping. Only the coordinating goroutine
// touches it.
type run struct {
	started map[Task]struct{}
	result  *Result
}

func newRun(id string, size int) *run {
	return &run{
		started: make(map[Task]struct{}, size),
		result: &Result{
			RunID:     id,
			Durations: make(map[Task]time.Duration, size),
		},
	}
}

func (r *run) start(t Task) {
	r.started[t] = struct{}{}
}

func (r *run) record(o outcome) {
	r.result.Durations[o.task] = o.elapsed
	if o.err != nil {
		r.result.Failed = append(r.result.Failed, o.task)
		return
	}
	r.result.Completed = append(r.result.Completed, o.task)
}

func (r *run) finish(order []Task) *Result {
	for _, t := range order {
		if _, ok := r.started[t]; !ok {
			r.result.Skipped = append(r.result.Skipped, t)
		}
	}
	return r.result
}
