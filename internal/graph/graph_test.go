package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagflow/internal/batch"
	"github.com/vk/dagflow/internal/cell"
	"github.com/vk/dagflow/internal/graph"
	"github.com/vk/dagflow/internal/node"
)

func nodeWithPorts(inputs, outputs []string) *node.Node {
	n := node.New(node.CPU)
	for _, p := range inputs {
		n.AddInput(p, cell.NewFloat64(0))
	}
	for _, p := range outputs {
		n.AddOutput(p, cell.NewFloat64(0))
	}
	return n
}

func TestAddNodeGrowsAdjacencyAndRoots(t *testing.T) {
	g := graph.New()
	a := g.AddNode(nodeWithPorts(nil, []string{"out"}))
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, g.Size())
	assert.Equal(t, []int{0}, g.GetRootNodes())

	b := g.AddNode(nodeWithPorts([]string{"out"}, nil))
	assert.Equal(t, 1, b)
	assert.ElementsMatch(t, []int{0, 1}, g.GetRootNodes())
}

func TestAddEdgeSuccessUpdatesRootsAndAdjacency(t *testing.T) {
	ctx := context.Background()
	g := graph.New()
	a := g.AddNode(nodeWithPorts(nil, []string{"x"}))
	b := g.AddNode(nodeWithPorts([]string{"x"}, nil))

	ok, reason := g.AddEdge(ctx, a, b)
	require.True(t, ok)
	assert.Equal(t, graph.RejectNone, reason)
	assert.True(t, g.EdgeExists(a, b))
	assert.Equal(t, []int{a}, g.GetRootNodes())
	assert.False(t, g.IsRoot(b))
}

func TestAddEdgeSelfRejected(t *testing.T) {
	ctx := context.Background()
	g := graph.New()
	a := g.AddNode(nodeWithPorts([]string{"x"}, []string{"x"}))
	ok, reason := g.AddEdge(ctx, a, a)
	assert.False(t, ok)
	assert.Equal(t, graph.RejectCycle, reason)
}

func TestAddEdgeOutOfRangeRejected(t *testing.T) {
	ctx := context.Background()
	g := graph.New()
	a := g.AddNode(nodeWithPorts(nil, []string{"x"}))
	ok, reason := g.AddEdge(ctx, a, 99)
	assert.False(t, ok)
	assert.Equal(t, graph.RejectOutOfRange, reason)
}

func TestAddEdgeIOMismatchRejected(t *testing.T) {
	// S3 — IO-mismatch rejection.
	ctx := context.Background()
	g := graph.New()
	x := g.AddNode(nodeWithPorts(nil, []string{"x_out"}))
	y := g.AddNode(nodeWithPorts([]string{"other_in"}, nil))

	ok, reason := g.AddEdge(ctx, x, y)
	assert.False(t, ok)
	assert.Equal(t, graph.RejectIOMismatch, reason)
}

func TestAddEdgeCycleRejected(t *testing.T) {
	// S2 — cycle rejection.
	ctx := context.Background()
	g := graph.New()
	a := g.AddNode(nodeWithPorts([]string{"dataC"}, []string{"dataA"}))
	b := g.AddNode(nodeWithPorts([]string{"dataA"}, []string{"dataB"}))
	c := g.AddNode(nodeWithPorts([]string{"dataB"}, []string{"dataC"}))

	ok, _ := g.AddEdge(ctx, a, b)
	require.True(t, ok)
	ok, _ = g.AddEdge(ctx, b, c)
	require.True(t, ok)

	ok, reason := g.AddEdge(ctx, c, a)
	assert.False(t, ok)
	assert.Equal(t, graph.RejectCycle, reason)

	assert.Equal(t, []int{a}, g.GetRootNodes())
	assert.False(t, g.HasCycle())
}

func TestRejectedEdgeLeavesGraphUnchanged(t *testing.T) {
	ctx := context.Background()
	g := graph.New()
	x := g.AddNode(nodeWithPorts(nil, []string{"x_out"}))
	y := g.AddNode(nodeWithPorts([]string{"other_in"}, nil))

	before := g.DescribeNodes()
	rootsBefore := g.GetRootNodes()

	ok, _ := g.AddEdge(ctx, x, y)
	require.False(t, ok)

	assert.Equal(t, before, g.DescribeNodes())
	assert.Equal(t, rootsBefore, g.GetRootNodes())
	assert.False(t, g.EdgeExists(x, y))
}

func TestInitStorageIdempotentOnShape(t *testing.T) {
	g := graph.New()
	n := g.AddNode(nodeWithPorts([]string{"in"}, []string{"out"}))

	g.InitStorage(2)
	g.SeedInputBatch(n, 0, "in", makeBatch(1))
	g.InitStorage(2) // idempotent: must not clobber the seeded slot

	mb := g.GetInputBatch(n, 0, "in")
	assert.Equal(t, 1, mb.Len())
}

func TestIsReadyRequiresNonEmptyCells(t *testing.T) {
	g := graph.New()
	n := g.AddNode(nodeWithPorts([]string{"in"}, []string{"out"}))
	g.InitStorage(1)

	// Default-seeded empty slot must NOT count as ready (spec.md §9 tightening).
	assert.False(t, g.IsReady(n, 0))

	g.SeedInputBatch(n, 0, "in", makeBatch(1))
	assert.True(t, g.IsReady(n, 0))
}

func makeBatch(vals ...float64) batch.MiniBatch {
	mb := batch.New()
	for _, v := range vals {
		mb.Append(cell.NewFloat64(v))
	}
	return mb
}
