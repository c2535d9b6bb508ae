package boxstacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/packingsolver/internal/model"
)

func stackableInstance(t *testing.T) *model.Instance {
	t.Helper()
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 20, Y: 10, Z: 10, Copies: 1, MaximumWeight: 100})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 2, Weight: 5, Copies: 2, Oriented: true, MaximumStackability: 2})
	inst, err := b.Build()
	require.NoError(t, err)
	return inst
}

func TestRootHasOneEmptySkylineSegment(t *testing.T) {
	inst := stackableInstance(t)
	s := New(inst)
	root := s.Root()
	require.Len(t, root.UncoveredItems, 1)
	assert.Equal(t, inst.BinTypes[0].Y, root.UncoveredItems[0].Ye)
}

func TestInsertionsOfferBasePlacementAgainstEmptySkyline(t *testing.T) {
	inst := stackableInstance(t)
	s := New(inst)
	insertions := s.Insertions(s.Root())
	require.NotEmpty(t, insertions)
	found := false
	for _, ins := range insertions {
		if ins.Mode == "base" && ins.ItemTypeID == 0 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestChildBaseCreatesNewStackAndTracksWeight(t *testing.T) {
	inst := stackableInstance(t)
	s := New(inst)
	root := s.Root()
	child := s.Child(root, Insertion{Mode: "base", SegmentIdx: 0, ItemTypeID: 0})
	require.Len(t, child.UncoveredItems, 1)
	assert.Equal(t, []int{0}, child.UncoveredItems[0].Stack.ItemTypeIDs)
	assert.Equal(t, 5.0, child.UncoveredItems[0].Stack.Weight)
}

func TestChildAboveExtendsExistingStack(t *testing.T) {
	inst := stackableInstance(t)
	s := New(inst)
	n := s.Child(s.Root(), Insertion{Mode: "base", SegmentIdx: 0, ItemTypeID: 0})
	n = s.Child(n, Insertion{Mode: "above", SegmentIdx: 0, ItemTypeID: 0})
	assert.Equal(t, []int{0, 0}, n.UncoveredItems[0].Stack.ItemTypeIDs)
	assert.Equal(t, 10.0, n.UncoveredItems[0].Stack.Weight)
	assert.Equal(t, 4.0, n.UncoveredItems[0].Stack.Ze)
}

func TestFitsAboveRejectsExceedingMaximumStackability(t *testing.T) {
	inst := stackableInstance(t)
	s := New(inst)
	n := s.Child(s.Root(), Insertion{Mode: "base", SegmentIdx: 0, ItemTypeID: 0})
	n = s.Child(n, Insertion{Mode: "above", SegmentIdx: 0, ItemTypeID: 0})
	bt := inst.BinTypes[n.BinTypeID]
	assert.False(t, s.fitsAbove(n.UncoveredItems[0], inst.ItemTypes[0], bt))
}

func TestLeafWhenAllCopiesPlaced(t *testing.T) {
	inst := stackableInstance(t)
	s := New(inst)
	n := s.Root()
	assert.False(t, s.Leaf(n))
	n = s.Child(n, Insertion{Mode: "base", SegmentIdx: 0, ItemTypeID: 0})
	n = s.Child(n, Insertion{Mode: "above", SegmentIdx: 0, ItemTypeID: 0})
	assert.True(t, s.Leaf(n))
}

func TestFitsAboveRejectsMismatchedStackabilityID(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 20, Y: 10, Z: 10, Copies: 1, MaximumWeight: 100})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 2, Weight: 5, Copies: 1, Oriented: true, MaximumStackability: 2, StackabilityID: 1})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 2, Weight: 5, Copies: 1, Oriented: true, MaximumStackability: 2, StackabilityID: 2})
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst)
	n := s.Child(s.Root(), Insertion{Mode: "base", SegmentIdx: 0, ItemTypeID: 0})
	bt := inst.BinTypes[n.BinTypeID]
	assert.False(t, s.fitsAbove(n.UncoveredItems[0], inst.ItemTypes[1], bt),
		"a different stackability id must never stack above an existing stack")
}

func TestFitsAboveRejectsMismatchedGroupID(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 20, Y: 10, Z: 10, Copies: 1, MaximumWeight: 100})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 2, Weight: 5, Copies: 1, Oriented: true, MaximumStackability: 2, GroupID: 1})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 2, Weight: 5, Copies: 1, Oriented: true, MaximumStackability: 2, GroupID: 2})
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst)
	n := s.Child(s.Root(), Insertion{Mode: "base", SegmentIdx: 0, ItemTypeID: 0})
	bt := inst.BinTypes[n.BinTypeID]
	assert.False(t, s.fitsAbove(n.UncoveredItems[0], inst.ItemTypes[1], bt),
		"a different group id must never stack above an existing stack")
}

func TestFitsAboveRejectsExceedingMaximumWeightAbove(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 20, Y: 10, Z: 10, Copies: 1, MaximumWeight: 100})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 2, Weight: 5, Copies: 1, Oriented: true, MaximumStackability: 5, MaximumWeightAbove: 3})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 2, Weight: 5, Copies: 1, Oriented: true, MaximumStackability: 5})
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst)
	n := s.Child(s.Root(), Insertion{Mode: "base", SegmentIdx: 0, ItemTypeID: 0})
	bt := inst.BinTypes[n.BinTypeID]
	assert.False(t, s.fitsAbove(n.UncoveredItems[0], inst.ItemTypes[1], bt),
		"the bottom item's maximum_weight_above must cap what can rest on top of it")
}

// TestFitsLeftAnchorsAgainstALowerNeighboringSegment sets up a skyline with
// an empty band over y=[0,4) and an occupied band (front at x=6) over
// y=[4,10). A new 6-tall stack anchored at the empty band's own edge
// (x=0) would cut through the occupied band above it, so plain "base"
// must reject it; "left" must anchor it at x=6 instead, past the taller
// neighbor.
func TestFitsLeftAnchorsAgainstALowerNeighboringSegment(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 20, Y: 10, Z: 10, Copies: 1})
	b.AddItemType(model.ItemType{W: 4, H: 6, Z: 2, Copies: 1, Oriented: true, MaximumStackability: 1})
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst)
	bt := inst.BinTypes[0]
	items := []UncoveredItem{
		{Xs: 0, Xe: 0, Ys: 0, Ye: 4},
		{Xs: 0, Xe: 6, Ys: 4, Ye: bt.Y, Stack: Stack{ItemTypeIDs: []int{0}, Weight: 5, Ze: 2}},
	}
	it := inst.ItemTypes[0]
	assert.False(t, s.fitsBase(items, 0, it, bt, false),
		"base anchored at the empty band's own edge must be rejected: the taller neighbor reaches further right")
	assert.True(t, s.fitsLeft(items, 0, it, bt, false),
		"left must anchor the new stack past the taller neighbor's right edge")
}

func TestInsertionsRejectsFootprintOverlappingADefect(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 20, Y: 10, Z: 10, Copies: 1})
	b.AddDefect(model.Defect{BinID: 0, X: 0, Y: 0, LX: 20, LY: 10})
	b.AddItemType(model.ItemType{W: 4, H: 4, Z: 2, Copies: 1, Oriented: true, MaximumStackability: 1})
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst)
	insertions := s.Insertions(s.Root())
	for _, ins := range insertions {
		assert.True(t, ins.NewBin, "a footprint fully covered by a defect must never be offered")
	}
}

func TestToSolutionPlacesBaseAndAboveItems(t *testing.T) {
	inst := stackableInstance(t)
	s := New(inst)
	n := s.Root()
	n = s.Child(n, Insertion{Mode: "base", SegmentIdx: 0, ItemTypeID: 0})
	n = s.Child(n, Insertion{Mode: "above", SegmentIdx: 0, ItemTypeID: 0})
	sol, err := s.ToSolution(n)
	require.NoError(t, err)
	assert.Equal(t, 2, sol.NumberOfItems)
}
