// Package pipeline compiles work items with declared dependencies into an
// executable, immutable Pipeline.
//
// # Why Pipeline Package Exists
//
// The graph and dag packages only know about ordering. This package is the
// user-facing layer on top of them: callers register tasks, say which tasks
// must run first (dependencies) and which task must run after (dependent),
// and get back something they can execute as many times as they like.
//
// # How It Works
//
// Every declaration becomes one edge of a dag.DAG[Task]:
//
//	b.Task(build).AddDependencies(fetch).Dependent(publish).Add()
//	// fetch -> build, build -> publish
//
// Create freezes the DAG, rejecting cycles. Execution then follows one of two
// models:
//
//   - Sequential (no Executor): tasks run on the calling goroutine in the
//     DAG's default topological order. The order is deterministic.
//   - Concurrent (Executor set): a coordinator on the calling goroutine keeps
//     a remaining-predecessor counter per task and a ready queue. Ready tasks
//     are handed to the Executor; finished tasks report back on a buffered
//     channel, and only the coordinator touches the counters, so a task is
//     released once and dispatched once.
//
// # Failures
//
// The first failing task (or a cancelled context) stops admission of new
// tasks. Tasks already running are allowed to finish, then the first error is
// returned. A task failure is always a *TaskError; tasks that never started
// are listed in Result.Skipped. Nothing is retried.
package pipeline
