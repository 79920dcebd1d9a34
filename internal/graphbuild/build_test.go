package graphbuild_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagflow/internal/cell"
	"github.com/vk/dagflow/internal/config"
	"github.com/vk/dagflow/internal/graphbuild"
	"github.com/vk/dagflow/internal/registry"
)

func writeGraphFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.bgf")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func testRegistry() *registry.Registry {
	reg := registry.New()
	reg.Register("scale2", func(in, out map[string]cell.Cell) {
		v, _ := in["x"].AsFloat64()
		out["y"] = cell.NewFloat64(v * 2)
	})
	reg.Register("div10", func(in, out map[string]cell.Cell) {
		v, _ := in["y"].AsFloat64()
		out["z"] = cell.NewFloat64(v / 10)
	})
	return reg
}

func TestBuildWiresNodesAndEdges(t *testing.T) {
	path := writeGraphFile(t, `
		node "multiply" {
			op = "scale2"
			input "x" {}
			output "y" {}
		}

		node "divide" {
			op = "div10"
			input "y" {}
			output "z" {}
		}

		edge "multiply" "divide" {}
	`)

	m, err := config.Load(context.Background(), path)
	require.NoError(t, err)

	g, ids, err := graphbuild.Build(context.Background(), m, testRegistry())
	require.NoError(t, err)
	require.Equal(t, 2, g.Size())

	assert.True(t, g.EdgeExists(ids["multiply"], ids["divide"]))
	assert.Equal(t, []int{ids["multiply"]}, g.GetRootNodes())
}

func TestBuildRejectsUnknownOp(t *testing.T) {
	path := writeGraphFile(t, `
		node "mystery" {
			op = "does-not-exist"
		}
	`)
	m, err := config.Load(context.Background(), path)
	require.NoError(t, err)

	_, _, err = graphbuild.Build(context.Background(), m, registry.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered op")
}

func TestBuildRejectsUnknownEdgeEndpoint(t *testing.T) {
	path := writeGraphFile(t, `
		node "a" {
			op = "scale2"
			input "x" {}
			output "y" {}
		}

		edge "a" "ghost" {}
	`)
	m, err := config.Load(context.Background(), path)
	require.NoError(t, err)

	_, _, err = graphbuild.Build(context.Background(), m, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestBuildRejectsIOMismatchEdge(t *testing.T) {
	path := writeGraphFile(t, `
		node "a" {
			op = "scale2"
			input "x" {}
			output "y" {}
		}

		node "b" {
			op = "div10"
			input "y" {}
			output "z" {}
		}

		node "c" {
			op = "div10"
			input "unrelated" {}
			output "z" {}
		}

		edge "a" "c" {}
	`)
	m, err := config.Load(context.Background(), path)
	require.NoError(t, err)

	_, _, err = graphbuild.Build(context.Background(), m, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}
