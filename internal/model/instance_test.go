package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/packingsolver/internal/model"
)

func TestBuildRejectsMissingBinTypes(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddItemType(model.ItemType{W: 10, H: 10})
	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestBuildRejectsOpenDimensionWithMultipleBinTypes(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.SetObjective(model.OpenDimensionX)
	b.AddBinType(model.BinType{X: 100, Y: 100})
	b.AddBinType(model.BinType{X: 200, Y: 100})
	b.AddItemType(model.ItemType{W: 10, H: 10})
	_, err := b.Build()
	require.Error(t, err)
}

func TestBuildRejectsCopiesMinAboveCopies(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 100, Y: 100, Copies: 2, CopiesMin: 3})
	b.AddItemType(model.ItemType{W: 10, H: 10})
	_, err := b.Build()
	require.Error(t, err)
}

func TestBuildDefaultsProfitToArea(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 100, Y: 100})
	b.AddItemType(model.ItemType{W: 10, H: 5})
	inst, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 50.0, inst.ItemTypes[0].Profit)
}

func TestBuildComputesDerivedTotals(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 100, Y: 100, Copies: 2})
	b.AddItemType(model.ItemType{W: 10, H: 10, Copies: 3})
	inst, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 300.0, inst.ItemArea)
	assert.Equal(t, 20000.0, inst.BinArea)
	assert.Len(t, inst.BinTypeIDs, 2)
}

func TestComputeAxleWeightsSplitsByLeverArm(t *testing.T) {
	truck := model.SemiTrailerTruckData{
		MiddleAxlePosition: 0, RearAxlePosition: 10,
		MiddleAxleMaximumWeight: 1000, RearAxleMaximumWeight: 1000,
	}
	middle, rear := truck.ComputeAxleWeights(500, 100, 10)
	assert.InDelta(t, 100.0, middle+rear, 1e-9)
	assert.GreaterOrEqual(t, middle, 0.0)
	assert.GreaterOrEqual(t, rear, 0.0)
}

func TestRotationsAllows(t *testing.T) {
	mask := model.RotationNone | model.RotationXY
	assert.True(t, mask.Allows(model.RotationXY))
	assert.False(t, mask.Allows(model.RotationXZ))
}
