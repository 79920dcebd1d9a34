// Package config parses the optional declarative graph-definition format: an
// HCL file describing node and edge blocks, decoded into a format-agnostic
// Model (ported from the teacher's internal/config.Model / internal/schema
// split, collapsed into a single package since this module's declarative
// surface is far smaller).
package config

import (
	"github.com/hashicorp/hcl/v2"
)

// PortSpec is the format-agnostic representation of an `input`/`output`
// block within a `node` block.
type PortSpec struct {
	Name    string         `hcl:"name,label"`
	Default hcl.Expression `hcl:"default,optional"`
}

// NodeSpec is the format-agnostic representation of a `node` block.
type NodeSpec struct {
	Name      string     `hcl:"name,label"`
	Placement string     `hcl:"placement,optional"`
	Op        string     `hcl:"op"`
	Inputs    []PortSpec `hcl:"input,block"`
	Outputs   []PortSpec `hcl:"output,block"`
}

// EdgeSpec is the format-agnostic representation of an `edge` block.
type EdgeSpec struct {
	From string `hcl:"from,label"`
	To   string `hcl:"to,label"`
}

// Model is the top-level decoded structure of a `.bgf` graph definition
// file (mirroring the teacher's GridConfig).
type Model struct {
	Nodes []NodeSpec `hcl:"node,block"`
	Edges []EdgeSpec `hcl:"edge,block"`
	Body  hcl.Body   `hcl:",remain"`
}
