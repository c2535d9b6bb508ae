package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/packingsolver/internal/model"
)

func buildInstance(t *testing.T) *model.Instance {
	t.Helper()
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 100, Y: 50, Copies: -1})
	b.AddItemType(model.ItemType{W: 10, H: 5, Weight: 2, Profit: 7})
	inst, err := b.Build()
	require.NoError(t, err)
	return inst
}

func TestSolutionBuilderAddItemUpdatesExtentAndProfit(t *testing.T) {
	inst := buildInstance(t)
	b := model.NewSolutionBuilder(inst)
	pos := b.AddBin(0, 0)
	require.NoError(t, b.AddItem(pos, 0, 0, 0, 0, model.RotationNone))

	sol := b.Solution()
	assert.Equal(t, 1, sol.NumberOfItems)
	assert.Equal(t, 7.0, sol.Profit)
	assert.Equal(t, 10.0, sol.XExtent)
	assert.Equal(t, 5.0, sol.YExtent)
}

func TestSolutionBuilderAddItemRejectsUnknownBin(t *testing.T) {
	inst := buildInstance(t)
	b := model.NewSolutionBuilder(inst)
	err := b.AddItem(3, 0, 0, 0, 0, model.RotationNone)
	require.Error(t, err)
}

func TestSolutionBuilderAddItemRejectsUnknownItemType(t *testing.T) {
	inst := buildInstance(t)
	b := model.NewSolutionBuilder(inst)
	pos := b.AddBin(0, 0)
	err := b.AddItem(pos, 99, 0, 0, 0, model.RotationNone)
	require.Error(t, err)
}

func TestSolutionLeafReportsFullyPacked(t *testing.T) {
	inst := buildInstance(t)
	b := model.NewSolutionBuilder(inst)
	pos := b.AddBin(0, 0)
	require.NoError(t, b.AddItem(pos, 0, 0, 0, 0, model.RotationNone))
	assert.True(t, b.Solution().Leaf(inst))
}

func TestSolutionWasteUses2DAreaWhenNo3DBins(t *testing.T) {
	inst := buildInstance(t)
	b := model.NewSolutionBuilder(inst)
	pos := b.AddBin(0, 0)
	require.NoError(t, b.AddItem(pos, 0, 0, 0, 0, model.RotationNone))
	sol := b.Solution()
	assert.Equal(t, sol.CurrentArea-sol.ItemArea, sol.Waste())
}

func TestPoolAddKeepsOnlyStrictlyBetterCandidate(t *testing.T) {
	inst := buildInstance(t)
	better := func(n1, n2 *model.Solution) bool { return n1.Profit > n2.Profit }
	pool := model.NewPool(inst, better)

	low := model.NewSolutionBuilder(inst)
	pos := low.AddBin(0, 0)
	require.NoError(t, low.AddItem(pos, 0, 0, 0, 0, model.RotationNone))

	assert.True(t, pool.Add(low.Solution()))
	assert.False(t, pool.Add(low.Solution()))
	assert.Equal(t, low.Solution(), pool.Best())
}
