// Package graph implements the Graph: a node registry, adjacency matrix,
// cycle/IO-compat invariants, per-(node,batch) port storage and the
// readiness oracle (spec.md §3/§4.2, ported from original_source/graph.h).
package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/node"
)

// Graph holds a dense, index-keyed node sequence with a stable insertion-order
// identity, a square adjacency matrix, the derived root list and the
// per-execution port storage. All exported methods are safe for concurrent
// use; the invariants of spec.md §3 (no self-edges, acyclic, IO-compat per
// edge, exact root list, InitStorage postconditions) hold after every call.
type Graph struct {
	mu    sync.RWMutex
	nodes []*node.Node
	adj   [][]bool
	roots []int

	// store[nodeID][batchID] -> portSlot{inputs, outputs}
	store [][]portSlot
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{}
}

// Size returns the number of nodes in the graph.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// AddNode appends node n, returning its stable id. The adjacency matrix
// grows by one row and column (all false); if storage has already been
// initialized, a matching empty per-batch slot map is appended for the new
// node. The root list is recomputed.
func (g *Graph) AddNode(n *node.Node) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := len(g.nodes)
	g.nodes = append(g.nodes, n)

	for i := range g.adj {
		g.adj[i] = append(g.adj[i], false)
	}
	newRow := make([]bool, len(g.nodes))
	g.adj = append(g.adj, newRow)

	if g.store != nil {
		numBatches := 0
		if len(g.store) > 0 {
			numBatches = len(g.store[0])
		}
		slots := make([]portSlot, numBatches)
		for b := range slots {
			slots[b] = newPortSlot(n)
		}
		g.store = append(g.store, slots)
	}

	g.updateRoots()
	return id
}

// EdgeRejectReason explains why AddEdge returned false.
type EdgeRejectReason int

const (
	// RejectNone means the edge was accepted.
	RejectNone EdgeRejectReason = iota
	// RejectOutOfRange means from/to do not name existing nodes.
	RejectOutOfRange
	// RejectCycle means the edge would create a cycle.
	RejectCycle
	// RejectIOMismatch means from and to share no port name.
	RejectIOMismatch
)

// AddEdge records an edge from->to if doing so is in range, acyclic, and
// IO-compatible (spec.md §4.2/§4.4); it returns whether the edge was added
// and, on rejection, the specific EdgeRejectReason, surfaced separately on
// the diagnostic channel as spec.md requires. On success the edge is
// recorded and the root list is recomputed; on failure the graph is
// byte-identical to before the call.
func (g *Graph) AddEdge(ctx context.Context, from, to int) (bool, EdgeRejectReason) {
	logger := ctxlog.FromContext(ctx)
	g.mu.Lock()
	defer g.mu.Unlock()

	if from < 0 || from >= len(g.nodes) || to < 0 || to >= len(g.nodes) {
		logger.Warn("Edge rejected: node id out of range.", "from", from, "to", to)
		return false, RejectOutOfRange
	}
	if from == to {
		logger.Warn("Edge rejected: self-edge.", "node", from)
		return false, RejectCycle
	}

	if g.wouldCreateCycle(from, to) {
		logger.Warn("Edge rejected: would create a cycle.", "from", from, "to", to)
		return false, RejectCycle
	}
	if !g.ioCompatible(from, to) {
		logger.Warn("Edge rejected: no shared port name.", "from", from, "to", to)
		return false, RejectIOMismatch
	}

	g.adj[from][to] = true
	g.updateRoots()
	return true, RejectNone
}

// EdgeExists reports whether an edge from->to is recorded.
func (g *Graph) EdgeExists(from, to int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if from < 0 || from >= len(g.nodes) || to < 0 || to >= len(g.nodes) {
		return false
	}
	return g.adj[from][to]
}

// IsRoot reports whether node id has no incoming edges.
func (g *Graph) IsRoot(id int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isRootLocked(id)
}

func (g *Graph) isRootLocked(id int) bool {
	for i := range g.adj {
		if g.adj[i][id] {
			return false
		}
	}
	return true
}

// GetRootNodes returns the root node ids in ascending order.
func (g *Graph) GetRootNodes() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]int, len(g.roots))
	copy(out, g.roots)
	return out
}

// Node returns the node at id.
func (g *Graph) Node(id int) *node.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// HasCycle runs the same DFS cycle detector AddEdge uses, without any
// tentative mutation.
func (g *Graph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

func (g *Graph) wouldCreateCycle(from, to int) bool {
	g.adj[from][to] = true
	cyclic := g.hasCycleLocked()
	g.adj[from][to] = false
	return cyclic
}

// hasCycleLocked runs a DFS with visited/on-stack coloring, visiting
// neighbors in ascending index order so behavior is deterministic. Each
// visited node scans its full adjacency-matrix row, so it runs in O(V²)
// rather than O(V+E).
func (g *Graph) hasCycleLocked() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.nodes))

	var visit func(u int) bool
	visit = func(u int) bool {
		color[u] = gray
		for v := 0; v < len(g.nodes); v++ {
			if !g.adj[u][v] {
				continue
			}
			switch color[v] {
			case gray:
				return true
			case white:
				if visit(v) {
					return true
				}
			}
		}
		color[u] = black
		return false
	}

	for u := 0; u < len(g.nodes); u++ {
		if color[u] == white {
			if visit(u) {
				return true
			}
		}
	}
	return false
}

func (g *Graph) ioCompatible(from, to int) bool {
	fromNode := g.nodes[from]
	toInputs := make(map[string]struct{}, len(g.nodes[to].Outputs()))
	for _, p := range g.nodes[to].Inputs() {
		toInputs[p] = struct{}{}
	}
	for _, p := range fromNode.Outputs() {
		if _, ok := toInputs[p]; ok {
			return true
		}
	}
	return false
}

func (g *Graph) updateRoots() {
	roots := make([]int, 0, len(g.nodes))
	for i := range g.nodes {
		if g.isRootLocked(i) {
			roots = append(roots, i)
		}
	}
	sort.Ints(roots)
	g.roots = roots
}

// DescribeNodes renders a diagnostic, human-readable dump of every node's
// outgoing edges (the Go equivalent of the original's printGraph, kept as a
// string-returning helper so the core itself stays I/O-free).
func (g *Graph) DescribeNodes() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := ""
	for i := range g.nodes {
		out += fmt.Sprintf("Node %d:\n", i)
		for j := range g.nodes {
			if g.adj[i][j] {
				out += fmt.Sprintf("  Edge to Node %d\n", j)
			}
		}
	}
	return out
}

// DescribeRoots renders a diagnostic dump of the current root list.
func (g *Graph) DescribeRoots() string {
	roots := g.GetRootNodes()
	return fmt.Sprintf("Root nodes: %v", roots)
}

// Predecessors returns the ids of nodes with an edge directly into id, in
// ascending order.
func (g *Graph) Predecessors(id int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []int
	for i := range g.adj {
		if g.adj[i][id] {
			out = append(out, i)
		}
	}
	return out
}

// Successors returns the ids of nodes with an edge directly from id, in
// ascending order.
func (g *Graph) Successors(id int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []int
	for j := range g.adj[id] {
		if g.adj[id][j] {
			out = append(out, j)
		}
	}
	return out
}

// SharedPorts returns the output port names of `from` that are also input
// port names of `to` — the set of logical wires an edge from->to carries
// (spec.md §4.4).
func (g *Graph) SharedPorts(from, to int) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	toInputs := make(map[string]struct{})
	for _, p := range g.nodes[to].Inputs() {
		toInputs[p] = struct{}{}
	}
	var out []string
	for _, p := range g.nodes[from].Outputs() {
		if _, ok := toInputs[p]; ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
