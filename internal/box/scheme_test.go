package box

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/packingsolver/internal/model"
)

func twoBoxInstance(t *testing.T) *model.Instance {
	t.Helper()
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 10, Y: 10, Z: 10, Copies: 1})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 4, Copies: 2, Rotations: model.RotationNone})
	inst, err := b.Build()
	require.NoError(t, err)
	return inst
}

func TestRootTilesEachProjectionWithOneRect(t *testing.T) {
	inst := twoBoxInstance(t)
	s := New(inst, DefaultParameters())
	root := s.Root()
	assert.Len(t, root.YUncovered, 1)
	assert.Len(t, root.ZUncovered, 1)
	assert.Equal(t, inst.BinTypes[0].X, root.YUncovered[0].Xe)
}

func TestInsertionsFlushAgainstEmptyBinOrigin(t *testing.T) {
	inst := twoBoxInstance(t)
	s := New(inst, DefaultParameters())
	root := s.Root()
	insertions := s.Insertions(root)
	require.NotEmpty(t, insertions)
	found := false
	for _, ins := range insertions {
		if ins.ItemTypeID == 0 && ins.Xs == 0 && ins.Ys == 0 && ins.Zs == 0 {
			found = true
		}
	}
	assert.True(t, found, "expected a flush-at-origin insertion")
}

func TestChildSplicesProjectionsAndTracksWaste(t *testing.T) {
	inst := twoBoxInstance(t)
	s := New(inst, DefaultParameters())
	root := s.Root()
	child := s.Child(root, Insertion{ItemTypeID: 0, Rotation: model.RotationNone})
	assert.Equal(t, 1, child.NumberOfItems)
	assert.InDelta(t, inst.ItemTypes[0].Volume(), child.ItemVolume, 1e-9)
	assert.GreaterOrEqual(t, child.Waste, 0.0)
}

func TestLeafWhenAllCopiesPlaced(t *testing.T) {
	inst := twoBoxInstance(t)
	s := New(inst, DefaultParameters())
	n := s.Root()
	assert.False(t, s.Leaf(n))
	n = s.Child(n, Insertion{ItemTypeID: 0, Rotation: model.RotationNone, Xs: 0, Ys: 0, Zs: 0})
	n = s.Child(n, Insertion{ItemTypeID: 0, Rotation: model.RotationNone, Xs: 4, Ys: 0, Zs: 0})
	assert.True(t, s.Leaf(n))
}

func TestToSolutionProducesPlacedItemsMatchingChain(t *testing.T) {
	inst := twoBoxInstance(t)
	s := New(inst, DefaultParameters())
	n := s.Root()
	n = s.Child(n, Insertion{ItemTypeID: 0, Rotation: model.RotationNone, Xs: 0, Ys: 0, Zs: 0})
	n = s.Child(n, Insertion{ItemTypeID: 0, Rotation: model.RotationNone, Xs: 4, Ys: 0, Zs: 0})
	sol, err := s.ToSolution(n)
	require.NoError(t, err)
	assert.Equal(t, 1, sol.NumberOfBins())
	assert.Equal(t, 2, sol.NumberOfItems)
}

func TestNodeHasherMatchesChildrenWithTheSameFrontier(t *testing.T) {
	inst := twoBoxInstance(t)
	s := New(inst, DefaultParameters())
	equal, hash := s.NodeHasher()
	a := s.Child(s.Root(), Insertion{ItemTypeID: 0, Rotation: model.RotationNone})
	b := s.Child(s.Root(), Insertion{ItemTypeID: 0, Rotation: model.RotationNone})
	assert.True(t, equal(a, b))
	assert.Equal(t, hash(a), hash(b))
}

func TestDimsAppliesEachRotationAxisSwap(t *testing.T) {
	it := model.ItemType{W: 1, H: 2, Z: 3}
	w, h, z := dims(it, model.RotationXY)
	assert.Equal(t, [3]float64{2, 1, 3}, [3]float64{w, h, z})
	w, h, z = dims(it, model.RotationNone)
	assert.Equal(t, [3]float64{1, 2, 3}, [3]float64{w, h, z})
}

func TestPermute3RoundTripsThroughEachOrientation(t *testing.T) {
	for orientation := 0; orientation < 3; orientation++ {
		a, b, c := permute3(orientation, 1, 2, 3)
		x, y, z := unpermute3(orientation, a, b, c)
		assert.InDelta(t, 1.0, x, 1e-12)
		assert.InDelta(t, 2.0, y, 1e-12)
		assert.InDelta(t, 3.0, z, 1e-12)
	}
}

// TestToSolutionSucceedsUnderNonDefaultOrientation places the first offered
// box under orientation 1 (the y-strip view) and checks ToSolution accepts
// the chain and reports the one placed item.
func TestToSolutionSucceedsUnderNonDefaultOrientation(t *testing.T) {
	inst := twoBoxInstance(t)
	s := New(inst, Parameters{Orientation: 1})
	n := s.Root()
	insertions := s.Insertions(n)
	require.NotEmpty(t, insertions)
	n = s.Child(n, insertions[0])
	sol, err := s.ToSolution(n)
	require.NoError(t, err)
	require.Equal(t, 1, sol.NumberOfItems)
}

func TestInsertionsRejectsItemsAboveMaximumWeight(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 10, Y: 10, Z: 10, Copies: 1, MaximumWeight: 5})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 4, Weight: 6, Copies: 1, Rotations: model.RotationNone})
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst, DefaultParameters())
	root := s.Root()
	insertions := s.Insertions(root)
	for _, ins := range insertions {
		assert.True(t, ins.NewBin, "an item heavier than the bin's maximum weight must never be offered")
	}
}

func TestInsertionsRejectsFootprintOverlappingADefect(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 10, Y: 10, Z: 10, Copies: 1})
	b.AddDefect(model.Defect{BinID: 0, X: 0, Y: 0, LX: 10, LY: 10})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 4, Copies: 1, Rotations: model.RotationNone})
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst, DefaultParameters())
	root := s.Root()
	insertions := s.Insertions(root)
	for _, ins := range insertions {
		assert.True(t, ins.NewBin, "a footprint fully covered by a defect must never be offered")
	}
}

func TestDominanceSkipsStrictlyWorseBoxType(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 10, Y: 10, Z: 10, Copies: 1})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 4, Profit: 5, Copies: 2, Rotations: model.RotationNone})  // worse
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 4, Profit: 9, Copies: 2, Rotations: model.RotationNone})  // better
	b.SetObjective(model.Knapsack)
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst, DefaultParameters())
	root := s.Root()
	insertions := s.Insertions(root)
	for _, ins := range insertions {
		assert.NotEqual(t, 0, ins.ItemTypeID, "worse box type must be skipped while the better one still has copies")
	}
}
