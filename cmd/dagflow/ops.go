package main

import (
	"github.com/vk/dagflow/internal/cell"
	"github.com/vk/dagflow/internal/registry"
)

// builtinOps registers a small set of arithmetic ops so a `.bgf` graph
// definition can be exercised without writing any Go. Real deployments are
// expected to register their own domain-specific bodies the same way.
func builtinOps(reg *registry.Registry) {
	reg.Register("identity", func(in, out map[string]cell.Cell) {
		for name, c := range in {
			if _, declared := out[name]; declared {
				out[name] = c
			}
		}
	})

	reg.Register("scale2", func(in, out map[string]cell.Cell) {
		v, _ := in["in"].AsFloat64()
		out["out"] = cell.NewFloat64(v * 2)
	})

	reg.Register("div10", func(in, out map[string]cell.Cell) {
		v, _ := in["in"].AsFloat64()
		out["out"] = cell.NewFloat64(v / 10)
	})

	reg.Register("add", func(in, out map[string]cell.Cell) {
		a, _ := in["a"].AsFloat64()
		b, _ := in["b"].AsFloat64()
		out["sum"] = cell.NewFloat64(a + b)
	})
}
