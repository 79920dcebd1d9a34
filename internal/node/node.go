// Package node implements the Graph Node: named typed ports plus a
// processing body dispatched by compute placement (spec.md §4.3, ported
// from original_source/graph_node.h's GraphNode/ComputeType).
package node

import (
	"fmt"

	"github.com/vk/dagflow/internal/cell"
)

// Placement is the compute-placement tag of a node's body.
type Placement int

const (
	// CPU runs the body on the host.
	CPU Placement = iota
	// Device offloads the body to an accelerator; the core does not
	// constrain how (spec.md §6's device-offload hook).
	Device
)

func (p Placement) String() string {
	switch p {
	case CPU:
		return "cpu"
	case Device:
		return "device"
	default:
		return fmt.Sprintf("node.Placement(%d)", int(p))
	}
}

// Body is a node's processing function: it reads inputs and writes outputs
// in place. Ports the body does not write remain at their previous value.
type Body func(inputs, outputs map[string]cell.Cell)

// PortMissingError is returned by GetInput/GetOutput for an undeclared port
// name (spec.md §7: "raise for node-port accessors").
type PortMissingError struct {
	Port string
	Dir  string // "input" or "output"
}

func (e *PortMissingError) Error() string {
	return fmt.Sprintf("node: %s port %q is not declared", e.Dir, e.Port)
}

// Node is a value entity at registration time (spec.md §3): it is moved
// into a Graph by graph.AddNode, which thereafter owns it.
type Node struct {
	Placement Placement

	inputs  map[string]cell.Cell
	outputs map[string]cell.Cell

	cpuBody    Body
	deviceBody Body
}

// New returns an empty node for the given placement with no body (a no-op
// on Execute until SetCPUBody/SetDeviceBody is called).
func New(p Placement) *Node {
	return &Node{
		Placement: p,
		inputs:    make(map[string]cell.Cell),
		outputs:   make(map[string]cell.Cell),
	}
}

// NewWithBody returns a node whose body for its own placement is set to fn.
func NewWithBody(p Placement, fn Body) *Node {
	n := New(p)
	switch p {
	case CPU:
		n.cpuBody = fn
	case Device:
		n.deviceBody = fn
	}
	return n
}

// SetCPUBody registers the body invoked when Placement is CPU.
func (n *Node) SetCPUBody(fn Body) { n.cpuBody = fn }

// SetDeviceBody registers the body invoked when Placement is Device.
func (n *Node) SetDeviceBody(fn Body) { n.deviceBody = fn }

// AddInput declares an input port, seeding it with a default value.
func (n *Node) AddInput(name string, def cell.Cell) { n.inputs[name] = def }

// AddOutput declares an output port, seeding it with a default value.
func (n *Node) AddOutput(name string, def cell.Cell) { n.outputs[name] = def }

// SetInput replaces the value held at an already-declared input port. If
// the port was not declared, it is created (defensive set, matching the
// original's operator[]-based setInput).
func (n *Node) SetInput(name string, v cell.Cell) { n.inputs[name] = v }

// SetOutput replaces the value held at an already-declared output port.
func (n *Node) SetOutput(name string, v cell.Cell) { n.outputs[name] = v }

// GetInput returns the current value of an input port, or a
// *PortMissingError if it was never declared.
func (n *Node) GetInput(name string) (cell.Cell, error) {
	v, ok := n.inputs[name]
	if !ok {
		return cell.Cell{}, &PortMissingError{Port: name, Dir: "input"}
	}
	return v, nil
}

// GetOutput returns the current value of an output port, or a
// *PortMissingError if it was never declared.
func (n *Node) GetOutput(name string) (cell.Cell, error) {
	v, ok := n.outputs[name]
	if !ok {
		return cell.Cell{}, &PortMissingError{Port: name, Dir: "output"}
	}
	return v, nil
}

// Inputs returns a read-only view of the input port names declared on this
// node, in no particular order.
func (n *Node) Inputs() []string { return keys(n.inputs) }

// Outputs returns a read-only view of the output port names declared on
// this node, in no particular order.
func (n *Node) Outputs() []string { return keys(n.outputs) }

func keys(m map[string]cell.Cell) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Execute dispatches to the body registered for the node's placement
// against n's own port maps. A node with no body registered for its
// placement is a no-op. Since it reads and writes n.inputs/n.outputs
// directly, Execute is for single-flow, non-concurrent callers only (see
// node_test.go); a scheduler running more than one (node,batch) task
// against the same Node concurrently must use ExecuteWith instead.
func (n *Node) Execute() {
	n.ExecuteWith(n.inputs, n.outputs)
}

// ExecuteWith dispatches to the body registered for the node's placement
// against the given inputs/outputs maps, never reading or writing n's own
// port state. This is what lets an executor run several (node,batch) tasks
// for the same Node concurrently: each task passes its own local maps, so
// no goroutine ever touches another's in-flight data (spec.md §5: the
// per-(node,batch) store is the only state execution mutates).
func (n *Node) ExecuteWith(inputs, outputs map[string]cell.Cell) {
	var body Body
	switch n.Placement {
	case CPU:
		body = n.cpuBody
	case Device:
		body = n.deviceBody
	}
	if body == nil {
		return
	}
	body(inputs, outputs)
}
