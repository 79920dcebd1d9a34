// Package graphbuild turns a decoded config.Model into a *graph.Graph,
// resolving each node's `op` name against an internal/registry.Registry —
// the declarative counterpart of hand-building a graph directly in Go,
// grounded on the teacher's dag.createNodes / dag.linkNodes / dag.Build
// split between node instantiation and edge linking.
package graphbuild

import (
	"context"
	"fmt"

	"github.com/vk/dagflow/internal/config"
	"github.com/vk/dagflow/internal/graph"
	"github.com/vk/dagflow/internal/node"
	"github.com/vk/dagflow/internal/registry"
)

// Build constructs a Graph from m, resolving each NodeSpec's op against reg
// and wiring edges in declaration order. It returns the built graph and a
// name-to-id index for seeding/inspection by callers, or a descriptive
// error on an unknown op, an unknown edge endpoint, or a rejected edge.
func Build(ctx context.Context, m *config.Model, reg *registry.Registry) (*graph.Graph, map[string]int, error) {
	g := graph.New()
	ids := make(map[string]int, len(m.Nodes))

	for _, spec := range m.Nodes {
		if _, dup := ids[spec.Name]; dup {
			return nil, nil, fmt.Errorf("graphbuild: duplicate node name %q", spec.Name)
		}

		body, ok := reg.Lookup(spec.Op)
		if !ok {
			return nil, nil, fmt.Errorf("graphbuild: node %q references unregistered op %q (known ops: %v)", spec.Name, spec.Op, reg.Names())
		}

		placement, err := parsePlacement(spec.Placement)
		if err != nil {
			return nil, nil, fmt.Errorf("graphbuild: node %q: %w", spec.Name, err)
		}

		n := node.New(placement)
		switch placement {
		case node.CPU:
			n.SetCPUBody(body)
		case node.Device:
			n.SetDeviceBody(body)
		}

		for _, p := range spec.Inputs {
			def, err := config.DefaultCell(p)
			if err != nil {
				return nil, nil, fmt.Errorf("graphbuild: node %q: %w", spec.Name, err)
			}
			n.AddInput(p.Name, def)
		}
		for _, p := range spec.Outputs {
			def, err := config.DefaultCell(p)
			if err != nil {
				return nil, nil, fmt.Errorf("graphbuild: node %q: %w", spec.Name, err)
			}
			n.AddOutput(p.Name, def)
		}

		ids[spec.Name] = g.AddNode(n)
	}

	for _, e := range m.Edges {
		fromID, ok := ids[e.From]
		if !ok {
			return nil, nil, fmt.Errorf("graphbuild: edge references unknown node %q", e.From)
		}
		toID, ok := ids[e.To]
		if !ok {
			return nil, nil, fmt.Errorf("graphbuild: edge references unknown node %q", e.To)
		}
		if ok, reason := g.AddEdge(ctx, fromID, toID); !ok {
			return nil, nil, fmt.Errorf("graphbuild: edge %s -> %s rejected: %s", e.From, e.To, reasonString(reason))
		}
	}

	return g, ids, nil
}

func parsePlacement(s string) (node.Placement, error) {
	switch s {
	case "", "cpu":
		return node.CPU, nil
	case "device":
		return node.Device, nil
	default:
		return 0, fmt.Errorf("unknown placement %q (want \"cpu\" or \"device\")", s)
	}
}

func reasonString(r graph.EdgeRejectReason) string {
	switch r {
	case graph.RejectOutOfRange:
		return "node id out of range"
	case graph.RejectCycle:
		return "would create a cycle"
	case graph.RejectIOMismatch:
		return "no shared port name"
	default:
		return "unknown"
	}
}
