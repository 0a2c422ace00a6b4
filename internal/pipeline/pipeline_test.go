package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vk/pipegraph/internal/edge"
	"github.com/vk/pipegraph/internal/graph"
	"github.com/vk/pipegraph/internal/workerpool"
)

// recorder collects task names in execution order.
type recorder struct {
	mu  sync.Mutex
	out strings.Builder
}

func (r *recorder) task(name string) *FuncTask {
	return NewTask(name, func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.out.WriteString(name)
		return nil
	})
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.String()
}

// diamond registers A as a root, then B and C, both depending on D and
// having A as their dependent.
func diamond(t *testing.T, b *Builder, a, bb, c, d Task) {
	t.Helper()
	require.NoError(t, b.Task(a).Add())
	require.NoError(t, b.Task(bb).AddDependencies(d).Dependent(a).Add())
	require.NoError(t, b.Task(c).AddDependencies(d).Dependent(a).Add())
}

func newPool(t *testing.T, size int) *workerpool.Pool {
	t.Helper()
	p, err := workerpool.New(size)
	require.NoError(t, err)
	return p
}

func TestExecute_Sequential(t *testing.T) {
	rec := &recorder{}
	b := New()
	diamond(t, b, rec.task("A"), rec.task("B"), rec.task("C"), rec.task("D"))

	p, err := b.Create()
	require.NoError(t, err)
	assert.False(t, p.Concurrent())
	assert.Equal(t, 4, p.Len())

	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, "DBCA", rec.String())
}

func TestExecute_SequentialIsRepeatable(t *testing.T) {
	rec := &recorder{}
	b := New()
	diamond(t, b, rec.task("A"), rec.task("B"), rec.task("C"), rec.task("D"))
	p, err := b.Create()
	require.NoError(t, err)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "DBCADBCA", rec.String())
	assert.NotEqual(t, first.RunID, second.RunID)
	if diff := gocmp.Diff(names(first.Completed), names(second.Completed)); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
	assert.True(t, first.Succeeded())
	assert.Len(t, first.Durations, 4)
}

func TestExecute_Concurrent(t *testing.T) {
	pattern := regexp.MustCompile(`^D(BC|CB)A$`)
	pool := newPool(t, 4)

	for i := 0; i < 50; i++ {
		rec := &recorder{}
		b := New().Executor(pool)
		diamond(t, b, rec.task("A"), rec.task("B"), rec.task("C"), rec.task("D"))
		p, err := b.Create()
		require.NoError(t, err)
		assert.True(t, p.Concurrent())

		require.NoError(t, p.Execute(context.Background()))
		assert.Regexp(t, pattern, rec.String(), "iteration %d", i)
	}
}

func TestExecute_ConcurrentHonoursEveryEdge(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pool := newPool(t, 8)

	for round := 0; round < 10; round++ {
		n := 5 + rng.Intn(25)
		var clock atomic.Int64
		startedAt := make([]int64, n)
		endedAt := make([]int64, n)
		runs := make([]atomic.Int32, n)

		tasks := make([]*FuncTask, n)
		for i := range tasks {
			tasks[i] = NewTask(fmt.Sprintf("t%d", i), func(context.Context) error {
				runs[i].Add(1)
				startedAt[i] = clock.Add(1)
				time.Sleep(time.Duration(i%3) * time.Millisecond)
				endedAt[i] = clock.Add(1)
				return nil
			})
		}

		b := New().Executor(pool)
		var edges []edge.Edge[int]
		for i := range tasks {
			reg := b.Task(tasks[i])
			for j := 0; j < i; j++ {
				if rng.Intn(4) == 0 {
					reg.AddDependencies(tasks[j])
					edges = append(edges, edge.New(j, i))
				}
			}
			require.NoError(t, reg.Add())
		}
		p, err := b.Create()
		require.NoError(t, err)

		res, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, res.Completed, n)

		for i := range runs {
			assert.Equal(t, int32(1), runs[i].Load(), "task %d runs exactly once", i)
		}
		for _, e := range edges {
			assert.Less(t, endedAt[e.From], startedAt[e.To], "edge %v", e)
		}
	}
}

func TestExecute_SequentialFailure(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	a, c, d := rec.task("A"), rec.task("C"), rec.task("D")
	bad := NewTask("B", func(context.Context) error { return boom })

	b := New()
	diamond(t, b, a, bad, c, d)
	p, err := b.Create()
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsTaskFailure(err))

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "B", taskErr.Name)
	assert.Same(t, bad, taskErr.Task)
	assert.EqualError(t, err, `task "B" failed: boom`)

	assert.Equal(t, "D", rec.String())
	assert.Equal(t, []string{"D"}, names(res.Completed))
	assert.Equal(t, []string{"B"}, names(res.Failed))
	assert.Equal(t, []string{"C", "A"}, names(res.Skipped))
	assert.False(t, res.Succeeded())
}

func TestExecute_ConcurrentFailureSkipsDescendants(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	bad := NewTask("D", func(context.Context) error { return boom })

	b := New().Executor(newPool(t, 4))
	diamond(t, b, rec.task("A"), rec.task("B"), rec.task("C"), bad)
	p, err := b.Create()
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rec.String())
	assert.ElementsMatch(t, []string{"A", "B", "C"}, names(res.Skipped))
}

func TestExecute_ConcurrentFailureDrainsInFlight(t *testing.T) {
	boom := errors.New("boom")
	failed := make(chan struct{})

	fail := NewTask("fail", func(context.Context) error {
		close(failed)
		return boom
	})
	var slowDone atomic.Bool
	slow := NewTask("slow", func(context.Context) error {
		<-failed
		time.Sleep(50 * time.Millisecond)
		slowDone.Store(true)
		return nil
	})
	after := NewTask("after", func(context.Context) error {
		t.Error("task after a failure must not be admitted")
		return nil
	})

	b := New().Executor(newPool(t, 2))
	require.NoError(t, b.Task(fail).Add())
	require.NoError(t, b.Task(slow).Dependent(after).Add())
	p, err := b.Create()
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, slowDone.Load(), "in-flight task finishes before Run returns")
	assert.Equal(t, []string{"slow"}, names(res.Completed))
	assert.Equal(t, []string{"fail"}, names(res.Failed))
	assert.Equal(t, []string{"after"}, names(res.Skipped))
}

func TestExecute_Panic(t *testing.T) {
	b := New()
	require.NoError(t, b.Task(NewTask("explode", func(context.Context) error { panic("kaboom") })).Add())
	p, err := b.Create()
	require.NoError(t, err)

	err = p.Execute(context.Background())
	assert.ErrorIs(t, err, ErrTaskPanic)
	assert.ErrorContains(t, err, "kaboom")
}

func TestExecute_Cancelled(t *testing.T) {
	rec := &recorder{}
	for _, concurrent := range []bool{false, true} {
		t.Run(fmt.Sprintf("concurrent=%v", concurrent), func(t *testing.T) {
			b := New()
			if concurrent {
				b.Executor(newPool(t, 2))
			}
			diamond(t, b, rec.task("A"), rec.task("B"), rec.task("C"), rec.task("D"))
			p, err := b.Create()
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := p.Run(ctx)
			assert.ErrorIs(t, err, context.Canceled)
			assert.False(t, IsTaskFailure(err))
			assert.Len(t, res.Skipped, 4)
		})
	}
	assert.Empty(t, rec.String())
}

func TestExecute_CancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := NewTask("first", func(context.Context) error {
		cancel()
		return nil
	})
	second := NewTask("second", func(context.Context) error {
		t.Error("second must not run after cancellation")
		return nil
	})

	b := New()
	require.NoError(t, b.Task(first).Dependent(second).Add())
	p, err := b.Create()
	require.NoError(t, err)

	res, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, names(res.Completed))
	assert.Equal(t, []string{"second"}, names(res.Skipped))
}

type counterAction struct {
	name  string
	count *int
}

func (c *counterAction) Do()          { *c.count++ }
func (c *counterAction) Name() string { return c.name }

func TestBuilder_Action(t *testing.T) {
	var count int
	custom := &counterAction{name: "count", count: &count}
	rec := &recorder{}
	last := rec.task("last")
	wrapped := NewAction("wrapped", func() { count += 10 })

	b := New()
	require.NoError(t, b.Action(custom).Dependent(last).Add())
	require.NoError(t, b.Action(wrapped).AddDependencies(AsTask(custom)).Add())
	p, err := b.Create()
	require.NoError(t, err)

	assert.Equal(t, []string{"count", "last", "wrapped"}, names(p.Tasks()))
	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, 11, count)
	assert.Equal(t, "last", rec.String())
	assert.Equal(t, AsTask(custom), AsTask(custom), "lifted actions compare equal")
}

type sliceTask []int

func (sliceTask) Run(context.Context) error { return nil }

// payloadTask has a comparable type, but its payload may hold a value that
// is not.
type payloadTask struct {
	payload any
}

func (payloadTask) Run(context.Context) error { return nil }

func TestBuilder_Errors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		x, y := NewTask("x", nil), NewTask("y", nil)
		b := New()
		require.NoError(t, b.Task(x).AddDependencies(y).Add())
		require.NoError(t, b.Task(y).AddDependencies(x).Add())

		p, err := b.Create()
		assert.Nil(t, p)
		assert.ErrorIs(t, err, errors.ErrUnsupported)
		var cycleErr *graph.CycleError[Task]
		require.ErrorAs(t, err, &cycleErr)
		assert.Len(t, cycleErr.Nodes(), 2)
	})

	t.Run("self dependency", func(t *testing.T) {
		x := NewTask("x", nil)
		b := New()
		err := b.Task(x).AddDependencies(x).Add()
		assert.ErrorIs(t, err, edge.ErrSelfLoop)
		err = b.Task(x).Dependent(x).Add()
		assert.ErrorIs(t, err, edge.ErrSelfLoop)

		_, err = b.Create()
		assert.ErrorIs(t, err, edge.ErrSelfLoop, "Create reports the first registration error")
	})

	t.Run("rejected registration leaves no edges", func(t *testing.T) {
		x, y := NewTask("x", nil), NewTask("y", nil)
		b := New()
		require.Error(t, b.Task(x).AddDependencies(y, x).Add())
		b.err = nil
		p, err := b.Create()
		require.NoError(t, err)
		assert.Zero(t, p.Len())
	})

	t.Run("uncomparable", func(t *testing.T) {
		b := New()
		err := b.Task(sliceTask{1}).Add()
		assert.ErrorIs(t, err, ErrUncomparableTask)

		err = b.Task(NewTask("ok", nil)).AddDependencies(sliceTask{2}).Add()
		assert.ErrorIs(t, err, ErrUncomparableTask)

		err = b.Task(payloadTask{payload: []int{1}}).Add()
		assert.ErrorIs(t, err, ErrUncomparableTask)

		err = b.Task(NewTask("ok", nil)).Dependent(payloadTask{payload: map[string]int{}}).Add()
		assert.ErrorIs(t, err, ErrUncomparableTask)

		require.NoError(t, b.Task(payloadTask{payload: 1}).Add())
	})

	t.Run("nil", func(t *testing.T) {
		b := New()
		assert.ErrorIs(t, b.Task(nil).Add(), ErrNilTask)
		assert.ErrorIs(t, b.Action(nil).Add(), ErrNilTask)
		assert.ErrorIs(t, b.Task(NewTask("x", nil)).AddDependencies(nil).Add(), ErrNilTask)
	})
}

func TestRun_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	rec := &recorder{}
	b := New().Executor(newPool(t, 2))
	diamond(t, b, rec.task("A"), rec.task("B"), rec.task("C"), rec.task("D"))
	p, err := b.Create()
	require.NoError(t, err)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 5)

	var root sdktrace.ReadOnlySpan
	var children []string
	for _, s := range spans {
		if s.Name() == "pipeline.Run" {
			root = s
			continue
		}
		children = append(children, s.Name())
	}
	require.NotNil(t, root)
	assert.ElementsMatch(t, []string{"A", "B", "C", "D"}, children)
	for _, s := range spans {
		if s != root {
			assert.Equal(t, root.SpanContext().SpanID(), s.Parent().SpanID())
		}
	}

	var runID string
	for _, kv := range root.Attributes() {
		if kv.Key == "pipeline.run_id" {
			runID = kv.Value.AsString()
		}
	}
	assert.Equal(t, res.RunID, runID)
}

func names(ts []Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, nameOf(t))
	}
	return out
}
