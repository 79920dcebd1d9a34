package graph

import (
	"github.com/vk/dagflow/internal/batch"
	"github.com/vk/dagflow/internal/node"
)

// portSlot is the per-(node,batch) Mini-Batch storage for one node. Input
// and output ports live in separate maps so a node that declares the same
// name on both sides (the root-seeding pattern of spec.md's S5 fan-out and
// S6 fan-in scenarios, where a root must declare an input port matching its seed name
// alongside a same-named output port) never has one direction's data
// aliased by the other.
type portSlot struct {
	inputs  map[string]batch.MiniBatch
	outputs map[string]batch.MiniBatch
}

func newPortSlot(n *node.Node) portSlot {
	s := portSlot{
		inputs:  make(map[string]batch.MiniBatch, len(n.Inputs())),
		outputs: make(map[string]batch.MiniBatch, len(n.Outputs())),
	}
	for _, p := range n.Inputs() {
		s.inputs[p] = batch.New()
	}
	for _, p := range n.Outputs() {
		s.outputs[p] = batch.New()
	}
	return s
}

// InitStorage prepares per-(node,batch) port storage for numBatches
// batches. It is idempotent on shape: existing batch indices and any
// already-seeded Mini-Batches are preserved; only missing batch slots (and
// missing port keys within existing slots) are filled in with empty
// Mini-Batches, matching spec.md §8's "init_storage is idempotent" property.
func (g *Graph) InitStorage(numBatches int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initStorageLocked(numBatches)
}

func (g *Graph) initStorageLocked(numBatches int) {
	if g.store == nil {
		g.store = make([][]portSlot, len(g.nodes))
	}
	for nodeID, n := range g.nodes {
		if len(g.store[nodeID]) < numBatches {
			grown := make([]portSlot, numBatches)
			copy(grown, g.store[nodeID])
			g.store[nodeID] = grown
		}
		for b := 0; b < numBatches; b++ {
			if g.store[nodeID][b].inputs == nil && g.store[nodeID][b].outputs == nil {
				g.store[nodeID][b] = newPortSlot(n)
				continue
			}
			for _, p := range n.Inputs() {
				if _, ok := g.store[nodeID][b].inputs[p]; !ok {
					g.store[nodeID][b].inputs[p] = batch.New()
				}
			}
			for _, p := range n.Outputs() {
				if _, ok := g.store[nodeID][b].outputs[p]; !ok {
					g.store[nodeID][b].outputs[p] = batch.New()
				}
			}
		}
	}
}

// SeedInputBatch installs a Mini-Batch at the input slot
// store[nodeID][batchID].inputs[port]. Storage must already cover batchID
// (see InitStorage); SeedInputBatch panics otherwise. Used by the executor to seed root nodes before the task queue starts
// draining — a root node that consumes externally-seeded data declares an
// input port of the same name (DESIGN.md's decision on spec.md's root-
// seeding question), so seeding always targets the input namespace.
func (g *Graph) SeedInputBatch(nodeID, batchID int, port string, mb batch.MiniBatch) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if batchID >= len(g.store[nodeID]) {
		panic("graph: SeedInputBatch called before InitStorage covered this batch")
	}
	if g.store[nodeID][batchID].inputs == nil {
		g.store[nodeID][batchID].inputs = make(map[string]batch.MiniBatch)
	}
	g.store[nodeID][batchID].inputs[port] = mb
}

// GetInputBatch returns a copy of the Mini-Batch at
// store[nodeID][batchID].inputs[port]. A miss creates an empty slot
// defensively (spec.md §4.2) without reshaping the outer node/batch vectors.
func (g *Graph) GetInputBatch(nodeID, batchID int, port string) batch.MiniBatch {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.store[nodeID][batchID].inputs == nil {
		g.store[nodeID][batchID].inputs = make(map[string]batch.MiniBatch)
	}
	mb, ok := g.store[nodeID][batchID].inputs[port]
	if !ok {
		mb = batch.New()
		g.store[nodeID][batchID].inputs[port] = mb
	}
	return mb
}

// SetInputBatch replaces the content of store[nodeID][batchID].inputs[port]
// with mb (a by-value content replacement, per spec.md §4.7 — used by the
// executor to propagate an upstream output into a downstream input).
func (g *Graph) SetInputBatch(nodeID, batchID int, port string, mb batch.MiniBatch) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.store[nodeID][batchID].inputs == nil {
		g.store[nodeID][batchID].inputs = make(map[string]batch.MiniBatch)
	}
	g.store[nodeID][batchID].inputs[port] = mb
}

// GetOutputBatch returns a copy of the Mini-Batch at
// store[nodeID][batchID].outputs[port]. A miss creates an empty slot
// defensively, mirroring GetInputBatch.
func (g *Graph) GetOutputBatch(nodeID, batchID int, port string) batch.MiniBatch {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.store[nodeID][batchID].outputs == nil {
		g.store[nodeID][batchID].outputs = make(map[string]batch.MiniBatch)
	}
	mb, ok := g.store[nodeID][batchID].outputs[port]
	if !ok {
		mb = batch.New()
		g.store[nodeID][batchID].outputs[port] = mb
	}
	return mb
}

// SetOutputBatch replaces the content of
// store[nodeID][batchID].outputs[port] with mb, the counterpart of
// SetInputBatch used by the executor once a node's body has produced a
// batch's worth of output cells.
func (g *Graph) SetOutputBatch(nodeID, batchID int, port string, mb batch.MiniBatch) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.store[nodeID][batchID].outputs == nil {
		g.store[nodeID][batchID].outputs = make(map[string]batch.MiniBatch)
	}
	g.store[nodeID][batchID].outputs[port] = mb
}

// IsReady reports whether every input port of nodeID holds at least one
// cell for batchID. This is the tightened reading of spec.md's readiness
// oracle (§4.2, §9): existence of the slot is necessary but not
// sufficient — an empty default slot, which InitStorage pre-fills for every
// declared input port, must not be mistaken for satisfied readiness.
func (g *Graph) IsReady(nodeID, batchID int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := g.nodes[nodeID]
	for _, p := range n.Inputs() {
		mb, ok := g.store[nodeID][batchID].inputs[p]
		if !ok || mb.Len() == 0 {
			return false
		}
	}
	return true
}

// NumBatches reports how many batch slots node nodeID's storage currently
// has, or 0 if storage has not been initialized for it.
func (g *Graph) NumBatches(nodeID int) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if nodeID >= len(g.store) {
		return 0
	}
	return len(g.store[nodeID])
}
