// Package executor implements the scheduler: a worker pool that drains a
// queue of (node, batch) tasks, gated by per-task readiness, propagating
// outputs to downstream nodes as each task completes (spec.md §4.5-§4.8).
//
// Rather than the literal poll-and-requeue loop of the original C++
// Executor, this implements spec.md §9's recommended event-driven
// refinement: an atomic incoming-dependency counter per (node, batch) task,
// decremented as upstream tasks finish, with a task pushed onto the ready
// queue only when its counter reaches zero. This removes the spin hazard
// while preserving every externally observable guarantee spec.md §4.5-§4.8
// describe.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vk/dagflow/internal/batch"
	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/graph"
	"github.com/vk/dagflow/internal/queue"
)

// Task is a (nodeId, batchId) pair — the unit of scheduling (spec.md's
// GLOSSARY "Task").
type Task struct {
	NodeID  int
	BatchID int
}

// State is a task's execution state.
type State int32

const (
	Pending State = iota
	Running
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("executor.State(%d)", int(s))
	}
}

// Observer is notified of task state transitions. It is purely diagnostic:
// it is called synchronously from the worker changing the task's state, its
// calls have no effect on the run's outcome, and a nil Observer is always
// valid. Used by
// cmd/dagflow to stream progress to external consumers (e.g. the socket.io
// telemetry emitter in internal/telemetry).
type Observer interface {
	OnTaskState(t Task, s State, err error)
}

type taskState struct {
	state    atomic.Int32
	depCount atomic.Int32
	err      error
	errMu    sync.Mutex
	skipOnce sync.Once
}

func (ts *taskState) setErr(err error) {
	ts.errMu.Lock()
	ts.err = err
	ts.errMu.Unlock()
}

func (ts *taskState) getErr() error {
	ts.errMu.Lock()
	defer ts.errMu.Unlock()
	return ts.err
}

// Executor runs a single Graph to completion across a worker pool.
type Executor struct {
	graph      *graph.Graph
	numBatches int
	numWorkers int
	observer   Observer

	ready *queue.Queue[*Task]
	tasks map[Task]*taskState
	wg    sync.WaitGroup
}

// Option configures an Executor at construction time.
type Option func(*Executor)

// WithWorkers overrides the worker pool size (default: runtime.GOMAXPROCS(0)).
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.numWorkers = n
		}
	}
}

// WithObserver attaches a diagnostic task-state observer.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// New constructs an Executor for g, seeding root nodes from inputs (one
// map per batch, port-name to Mini-Batch) and initializing per-node
// storage, exactly as the original Executor constructor eagerly does
// (spec.md §4.5 "Seeding").
func New(g *graph.Graph, inputs []map[string]batch.MiniBatch, opts ...Option) *Executor {
	e := &Executor{
		graph:      g,
		numBatches: len(inputs),
		numWorkers: runtime.GOMAXPROCS(0),
		ready:      queue.New[*Task](),
		tasks:      make(map[Task]*taskState),
	}
	for _, opt := range opts {
		opt(e)
	}

	g.InitStorage(len(inputs))

	for batchID, seed := range inputs {
		for _, rootID := range g.GetRootNodes() {
			for port, mb := range seed {
				g.SeedInputBatch(rootID, batchID, port, mb)
			}
		}
	}

	for nodeID := 0; nodeID < g.Size(); nodeID++ {
		indeg := len(g.Predecessors(nodeID))
		for batchID := 0; batchID < e.numBatches; batchID++ {
			ts := &taskState{}
			ts.depCount.Store(int32(indeg))
			e.tasks[Task{NodeID: nodeID, BatchID: batchID}] = ts
		}
	}

	return e
}

func (e *Executor) state(t Task) *taskState { return e.tasks[t] }

func (e *Executor) setState(t Task, s State, err error) {
	ts := e.state(t)
	ts.state.Store(int32(s))
	if err != nil {
		ts.setErr(err)
	}
	if e.observer != nil {
		e.observer.OnTaskState(t, s, err)
	}
}

// Run seeds the ready queue with every task whose dependency counter starts
// at zero (the root tasks), starts the worker pool, and blocks until every
// task has executed — or been skipped as a consequence of an upstream
// failure — exactly once (spec.md §4.5 "Termination"). It returns a
// wrapped root-cause error if any node failed for a reason other than an
// upstream skip.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	total := e.graph.Size() * e.numBatches
	e.wg.Add(total)

	rootCount := 0
	for t, ts := range e.tasks {
		if ts.depCount.Load() == 0 {
			t := t
			e.ready.Push(&t)
			rootCount++
		}
	}
	logger.Debug("Seeded ready queue with root tasks.", "count", rootCount, "total", total)

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numWorkers; i++ {
		workerID := i
		group.Go(func() error {
			e.worker(gctx, workerID)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	<-done

	for i := 0; i < e.numWorkers; i++ {
		e.ready.Push(nil)
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("executor: worker pool setup failed: %w", err)
	}

	return e.rootCauseError()
}

func (e *Executor) rootCauseError() error {
	var failedIDs []string
	var rootCause error
	for t, ts := range e.tasks {
		if State(ts.state.Load()) != Failed {
			continue
		}
		err := ts.getErr()
		if err == nil {
			continue
		}
		if strings.HasPrefix(err.Error(), "skipped") {
			continue
		}
		failedIDs = append(failedIDs, fmt.Sprintf("node=%d batch=%d", t.NodeID, t.BatchID))
		if rootCause == nil {
			rootCause = err
		}
	}
	if rootCause == nil {
		return nil
	}
	return fmt.Errorf("execution failed for [%s]: %w", strings.Join(failedIDs, ", "), rootCause)
}

func (e *Executor) worker(ctx context.Context, workerID int) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	for {
		t := e.ready.WaitAndPop()
		if t == nil {
			return
		}
		e.runOne(ctx, logger, *t)
	}
}

func (e *Executor) runOne(ctx context.Context, logger *slog.Logger, t Task) {
	defer e.wg.Done()

	if ctx.Err() != nil {
		e.setState(t, Failed, ctx.Err())
		e.skipDownstream(t, ctx.Err())
		return
	}

	e.setState(t, Running, nil)

	err := e.executeAndPropagate(ctx, t)
	if err != nil {
		logger.Error("task failed", "node", t.NodeID, "batch", t.BatchID, "error", err)
		e.setState(t, Failed, err)
		e.skipDownstream(t, err)
		return
	}

	e.setState(t, Done, nil)
	e.unlockDownstream(t)
}

// skipDownstream recursively marks every downstream (node,batch) task as
// Failed with a "skipped" error and releases its WaitGroup slot, so a
// failure never leaves the schedule permanently stuck waiting on a task
// that can now never become ready.
func (e *Executor) skipDownstream(t Task, cause error) {
	for _, m := range e.graph.Successors(t.NodeID) {
		dt := Task{NodeID: m, BatchID: t.BatchID}
		ts := e.state(dt)
		ts.skipOnce.Do(func() {
			ts.setErr(fmt.Errorf("skipped due to upstream failure of node %d: %w", t.NodeID, cause))
			e.setState(dt, Failed, ts.getErr())
			e.wg.Done()
			e.skipDownstream(dt, cause)
		})
	}
}

func (e *Executor) unlockDownstream(t Task) {
	for _, m := range e.graph.Successors(t.NodeID) {
		e.propagate(t, m)
		dt := Task{NodeID: m, BatchID: t.BatchID}
		ts := e.state(dt)
		if ts.depCount.Add(-1) == 0 {
			e.ready.Push(&dt)
		}
	}
}

// propagate copies every shared-port output Mini-Batch produced by
// (from, batch) into the matching input slot of node `to` for the same
// batch (spec.md §4.7). The copy is a content replacement; ports of `to`
// not named by `from`'s outputs are untouched.
func (e *Executor) propagate(from Task, to int) {
	for _, port := range e.graph.SharedPorts(from.NodeID, to) {
		mb := e.graph.GetOutputBatch(from.NodeID, from.BatchID, port)
		e.graph.SetInputBatch(to, from.BatchID, port, mb)
	}
}
