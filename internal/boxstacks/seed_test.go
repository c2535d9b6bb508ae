package boxstacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/packingsolver/internal/ibs"
	"github.com/piwi3910/packingsolver/internal/model"
)

// TestSeedAxleBalancedBoxStacks reproduces the axle-balanced scenario: two
// equal-footprint items, one from a heavy group, loaded onto a semi-trailer
// bin. Placing the heavy item closer to the front (smaller x) shifts its
// share of the load off the rear axle; placing it second pushes the rear
// axle over its limit. Better's axle-overweight term is what the search
// uses to prefer the first ordering — there is no separate pass reading the
// IncreasingX unloading constraint, so this is the mechanism that actually
// realizes the spec's "heavier must appear first" expectation here.
func TestSeedAxleBalancedBoxStacks(t *testing.T) {
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{
		X: 20, Y: 10, Z: 10, Copies: 1,
		Truck: model.SemiTrailerTruckData{
			MiddleAxlePosition: 5, MiddleAxleMaximumWeight: 1000,
			RearAxlePosition: 15, RearAxleMaximumWeight: 30,
		},
	})
	b.AddItemType(model.ItemType{W: 8, H: 5, Z: 2, Weight: 50, Copies: 1, Oriented: true, MaximumStackability: 1, GroupID: 1})
	b.AddItemType(model.ItemType{W: 8, H: 5, Z: 2, Weight: 10, Copies: 1, Oriented: true, MaximumStackability: 1, GroupID: 0})
	inst, err := b.Build()
	require.NoError(t, err)

	s := New(inst)
	info := ibs.NewInfo(nil, 100_000)
	sol, err := ibs.Run[*Node, Insertion](s, func(n *Node) int { return n.NumberOfItems }, ibs.DefaultParams(), info)
	require.NoError(t, err)
	require.NotNil(t, sol)

	assert.Equal(t, 2, sol.NumberOfItems)
	assert.LessOrEqual(t, sol.RearAxleOverweight, 0.0, "the rear axle load must stay within its limit")

	var heavyX, lightX float64
	for _, item := range sol.Bins[0].Items {
		switch item.ItemTypeID {
		case 0:
			heavyX = item.X
		case 1:
			lightX = item.X
		}
	}
	assert.Less(t, heavyX, lightX, "the heavy item must be loaded ahead of the light one")
}
