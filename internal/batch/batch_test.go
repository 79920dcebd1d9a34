package batch_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagflow/internal/batch"
	"github.com/vk/dagflow/internal/cell"
)

func TestAppendAndAt(t *testing.T) {
	b := batch.New()
	b.Append(cell.NewFloat64(1))
	b.Append(cell.NewFloat64(2))

	assert.Equal(t, 2, b.Len())
	c, err := b.At(1)
	require.NoError(t, err)
	v, _ := c.AsFloat64()
	assert.Equal(t, 2.0, v)
}

func TestAtOutOfRange(t *testing.T) {
	b := batch.New()
	_, err := b.At(0)
	require.Error(t, err)
	var oor *batch.OutOfRangeError
	assert.ErrorAs(t, err, &oor)
}

func TestNameRoundTrip(t *testing.T) {
	b := batch.NewNamed("seed")
	assert.Equal(t, "seed", b.Name())
	b.SetName("renamed")
	assert.Equal(t, "renamed", b.Name())
}

func TestClear(t *testing.T) {
	b := batch.FromCells(cell.NewInt32(1), cell.NewInt32(2))
	b.Clear()
	assert.Equal(t, 0, b.Len())
}

func TestEqual(t *testing.T) {
	a := batch.NewNamed("x")
	a.Append(cell.NewInt32(1))
	b := batch.NewNamed("x")
	b.Append(cell.NewInt32(1))
	assert.True(t, a.Equal(b))

	c := batch.NewNamed("y")
	c.Append(cell.NewInt32(1))
	assert.False(t, a.Equal(c))
}

func TestCloneIsIndependent(t *testing.T) {
	a := batch.FromCells(cell.NewInt32(1))
	clone := a.Clone()
	clone.Append(cell.NewInt32(2))

	if diff := cmp.Diff(1, a.Len()); diff != "" {
		t.Fatalf("original batch mutated via clone (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, clone.Len())
}
