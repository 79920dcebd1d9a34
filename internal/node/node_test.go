package node_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagflow/internal/cell"
	"github.com/vk/dagflow/internal/node"
)

func TestNoOpWithoutBody(t *testing.T) {
	n := node.New(node.CPU)
	n.AddInput("in", cell.NewFloat64(0))
	n.AddOutput("out", cell.NewFloat64(0))
	n.SetInput("in", cell.NewFloat64(5))
	n.Execute()

	out, err := n.GetOutput("out")
	require.NoError(t, err)
	v, _ := out.AsFloat64()
	assert.Equal(t, 0.0, v)
}

func TestDispatchesByPlacement(t *testing.T) {
	n := node.New(node.Device)
	n.AddInput("in", cell.NewFloat64(0))
	n.AddOutput("out", cell.NewFloat64(0))
	n.SetCPUBody(func(in, out map[string]cell.Cell) {
		out["out"] = cell.NewFloat64(-1)
	})
	n.SetDeviceBody(func(in, out map[string]cell.Cell) {
		v, _ := in["in"].AsFloat64()
		out["out"] = cell.NewFloat64(v * 2)
	})
	n.SetInput("in", cell.NewFloat64(3))
	n.Execute()

	out, err := n.GetOutput("out")
	require.NoError(t, err)
	v, _ := out.AsFloat64()
	assert.Equal(t, 6.0, v)
}

func TestGetUndeclaredPortFails(t *testing.T) {
	n := node.New(node.CPU)
	_, err := n.GetInput("nope")
	require.Error(t, err)
	var pm *node.PortMissingError
	assert.ErrorAs(t, err, &pm)
	assert.Equal(t, "input", pm.Dir)
}

func TestPlacementString(t *testing.T) {
	assert.Equal(t, "cpu", node.CPU.String())
	assert.Equal(t, "device", node.Device.String())
}
