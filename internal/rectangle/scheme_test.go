package rectangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/packingsolver/internal/model"
)

func twoItemInstance(t *testing.T) *model.Instance {
	t.Helper()
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 10, Y: 10, Copies: 1})
	b.AddItemType(model.ItemType{W: 4, H: 3, Copies: 2, Oriented: true})
	inst, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return inst
}

func TestRootHasOneUncoveredSegmentSpanningBin(t *testing.T) {
	inst := twoItemInstance(t)
	s := New(inst, DefaultParameters())
	root := s.Root()
	assert.Len(t, root.UncoveredItems, 1)
	assert.Equal(t, 0.0, root.UncoveredItems[0].Ys)
	assert.Equal(t, inst.BinTypes[0].Y, root.UncoveredItems[0].Ye)
}

func TestInsertionsFlushLeftAgainstEmptyBin(t *testing.T) {
	inst := twoItemInstance(t)
	s := New(inst, DefaultParameters())
	root := s.Root()
	insertions := s.Insertions(root)
	if len(insertions) == 0 {
		t.Fatal("expected at least one insertion against an empty bin")
	}
	found := false
	for _, ins := range insertions {
		if ins.ItemTypeID == 0 && ins.X == 0 && ins.Y == 0 {
			found = true
		}
	}
	assert.True(t, found, "expected a flush-left-at-origin insertion")
}

func TestChildSplicesUncoveredItemsAndTracksWaste(t *testing.T) {
	inst := twoItemInstance(t)
	s := New(inst, DefaultParameters())
	root := s.Root()
	child := s.Child(root, Insertion{ItemTypeID: 0, X: 0, Y: 0})
	assert.Equal(t, 1, child.NumberOfItems)
	assert.InDelta(t, inst.ItemTypes[0].Area(), child.ItemArea, 1e-9)
	assert.GreaterOrEqual(t, child.Waste, 0.0)
}

func TestLeafWhenAllCopiesPlaced(t *testing.T) {
	inst := twoItemInstance(t)
	s := New(inst, DefaultParameters())
	n := s.Root()
	assert.False(t, s.Leaf(n))
	n = s.Child(n, Insertion{ItemTypeID: 0, X: 0, Y: 0})
	n = s.Child(n, Insertion{ItemTypeID: 0, X: 4, Y: 0})
	assert.True(t, s.Leaf(n))
}

func TestToSolutionProducesPlacedItemsMatchingChain(t *testing.T) {
	inst := twoItemInstance(t)
	s := New(inst, DefaultParameters())
	n := s.Root()
	n = s.Child(n, Insertion{ItemTypeID: 0, X: 0, Y: 0})
	n = s.Child(n, Insertion{ItemTypeID: 0, X: 4, Y: 0})
	sol, err := s.ToSolution(n)
	if err != nil {
		t.Fatalf("to_solution: %v", err)
	}
	assert.Equal(t, 1, sol.NumberOfBins())
	assert.Equal(t, 2, sol.NumberOfItems)
}

func TestDominatesIsThePredecessorHasNoLowerProfitRelation(t *testing.T) {
	a := model.ItemType{ID: 0, W: 4, H: 3, Profit: 10}
	b := model.ItemType{ID: 1, W: 4, H: 3, Profit: 12}
	assert.True(t, dominates(b, a, 0), "b (higher profit) is a predecessor of a under the same footprint")
	assert.False(t, dominates(a, b, 0), "a has strictly lower profit, so it cannot be b's predecessor")
}

// TestKnapsackDominanceSkipsStrictlyWorseType reproduces the "rectangle
// knapsack with dominance" scenario: two item types share a footprint and
// differ only in profit, and the lower-profit type must be excluded from
// insertions at any node where the higher-profit type still has a copy
// remaining.
func TestKnapsackDominanceSkipsStrictlyWorseType(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 100, Y: 100, Copies: 1})
	b.AddItemType(model.ItemType{W: 10, H: 10, Profit: 5, Copies: 2})  // worse
	b.AddItemType(model.ItemType{W: 10, H: 10, Profit: 9, Copies: 2})  // better
	b.SetObjective(model.Knapsack)
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst, DefaultParameters())
	root := s.Root()
	insertions := s.Insertions(root)
	for _, ins := range insertions {
		assert.NotEqual(t, 0, ins.ItemTypeID, "worse item type must be skipped while the better one still has copies")
	}

	// Once the better type is exhausted, the worse type becomes available.
	n := s.Child(root, Insertion{ItemTypeID: 1, X: 0, Y: 0})
	n = s.Child(n, Insertion{ItemTypeID: 1, X: 10, Y: 0})
	insertions = s.Insertions(n)
	found := false
	for _, ins := range insertions {
		if ins.ItemTypeID == 0 {
			found = true
		}
	}
	assert.True(t, found, "worse item type becomes available once the better one is exhausted")
}
