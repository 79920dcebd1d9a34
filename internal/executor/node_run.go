package executor

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/dagflow/internal/batch"
	"github.com/vk/dagflow/internal/cell"
	"github.com/vk/dagflow/internal/node"
)

// safeExecute invokes n.ExecuteWith(inputs, outputs), recovering a
// panicking body (e.g. a cell.VariantMismatchError from a Must* accessor)
// into an error rather than taking down the worker goroutine — spec.md
// §7/§8: a failing body aborts that (node,batch) task, not the pool.
// inputs/outputs are local to this task: safeExecute never touches n's own
// port maps, so two (node,batch) tasks for the same Node can run
// concurrently on different workers without a data race or
// cross-contaminating each other's cells (spec.md §5).
func safeExecute(n *node.Node, inputs, outputs map[string]cell.Cell) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	n.ExecuteWith(inputs, outputs)
	return nil
}

// notReadyError marks a task whose dependency counter reached zero but
// whose declared input ports are still missing seeded data — an
// unsatisfiable-readiness schedule (spec.md §7 "StuckSchedule"). The literal
// C++ scheduler spins forever on this; this port instead fails the task
// descriptively rather than hanging the WaitGroup-based termination forever,
// a deliberate, documented strengthening (see DESIGN.md).
type notReadyError struct {
	NodeID, BatchID int
}

func (e *notReadyError) Error() string {
	return fmt.Sprintf("node %d batch %d: dependencies satisfied but a declared input port has no seeded data (unreachable from any root)", e.NodeID, e.BatchID)
}

// executeAndPropagate checks readiness and runs execute-node semantics for
// (n, b) (spec.md §4.6). It does not propagate outputs itself: runOne does
// that through unlockDownstream once the task is marked Done (spec.md §4.7).
func (e *Executor) executeAndPropagate(ctx context.Context, t Task) error {
	if !e.graph.IsReady(t.NodeID, t.BatchID) {
		return &notReadyError{NodeID: t.NodeID, BatchID: t.BatchID}
	}
	if err := e.executeNode(t); err != nil {
		return err
	}
	return nil
}

// executeNode implements spec.md §4.6: for a node with declared input
// ports, every port's Mini-Batch for this batch must hold the same number
// of cells (the documented single-input case generalized per SPEC_FULL.md's
// decision on spec.md §9's multi-input open question); the body is invoked
// once per position, reading the i-th cell of every input port and
// appending the resulting output cell to every output port's Mini-Batch. A
// node declaring no input ports at all is invoked exactly once.
//
// Every value the body reads or writes lives in maps local to this call —
// never the shared *node.Node — because the same Node is revisited once per
// batch, and the executor runs distinct (node,batch) tasks for the same
// Node concurrently across workers. Routing cells through n.inputs/n.outputs
// here would let one batch's SetInput race with, or bleed into, another's
// read (spec.md §5's store-is-the-only-shared-state invariant, and the
// independent-batches guarantee of §4.1's S4 scenario).
func (e *Executor) executeNode(t Task) error {
	n := e.graph.Node(t.NodeID)

	inputPorts := n.Inputs()
	sort.Strings(inputPorts)
	outputPorts := n.Outputs()
	sort.Strings(outputPorts)

	positions := 1
	if len(inputPorts) > 0 {
		positions = -1
		for _, p := range inputPorts {
			mb := e.graph.GetInputBatch(t.NodeID, t.BatchID, p)
			if positions == -1 {
				positions = mb.Len()
			} else if mb.Len() != positions {
				return fmt.Errorf("node %d: input port %q has %d cells, expected %d (all input ports must be in lockstep)", t.NodeID, p, mb.Len(), positions)
			}
		}
	}

	inputBatches := make(map[string]batch.MiniBatch, len(inputPorts))
	for _, p := range inputPorts {
		inputBatches[p] = e.graph.GetInputBatch(t.NodeID, t.BatchID, p)
	}
	outputBatches := make(map[string]batch.MiniBatch, len(outputPorts))
	for _, p := range outputPorts {
		outputBatches[p] = e.graph.GetOutputBatch(t.NodeID, t.BatchID, p)
	}

	// localOutputs starts at each port's declared default and carries
	// forward across positions within this one task, matching Body's
	// documented "ports not written remain at their previous value"
	// contract without ever touching n.outputs.
	localOutputs := make(map[string]cell.Cell, len(outputPorts))
	for _, q := range outputPorts {
		def, err := n.GetOutput(q)
		if err != nil {
			return fmt.Errorf("node %d: output port %q: %w", t.NodeID, q, err)
		}
		localOutputs[q] = def
	}

	for i := 0; i < positions; i++ {
		localInputs := make(map[string]cell.Cell, len(inputPorts))
		for _, p := range inputPorts {
			c, err := inputBatches[p].At(i)
			if err != nil {
				return fmt.Errorf("node %d: reading input port %q at position %d: %w", t.NodeID, p, i, err)
			}
			localInputs[p] = c
		}

		if err := safeExecute(n, localInputs, localOutputs); err != nil {
			return fmt.Errorf("node %d: body failed at position %d: %w", t.NodeID, i, err)
		}

		for _, q := range outputPorts {
			ob := outputBatches[q]
			ob.Append(localOutputs[q])
			outputBatches[q] = ob
		}
	}

	for _, q := range outputPorts {
		e.graph.SetOutputBatch(t.NodeID, t.BatchID, q, outputBatches[q])
	}
	return nil
}
