package ibs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/packingsolver/internal/ibs"
	"github.com/piwi3910/packingsolver/internal/model"
	"github.com/piwi3910/packingsolver/internal/rectangle"
)

func buildSmallInstance(t *testing.T) *model.Instance {
	t.Helper()
	b := model.NewInstanceBuilder()
	b.AddBinType(model.BinType{X: 10, Y: 10, Copies: 1})
	b.AddItemType(model.ItemType{W: 5, H: 5, Copies: 4, Oriented: true})
	inst, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return inst
}

func TestRunFindsAFeasiblePacking(t *testing.T) {
	inst := buildSmallInstance(t)
	scheme := rectangle.New(inst, rectangle.DefaultParameters())
	depthOf := func(n *rectangle.Node) int { return n.NumberOfItems }

	sol, err := ibs.Run[*rectangle.Node, rectangle.Insertion](scheme, depthOf, ibs.Params{GrowthFactor: 1.5, MaxQueueSize: 16}, ibs.NewInfo(nil, 5000))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sol == nil {
		t.Fatal("expected a solution for four 5x5 items in a 10x10 bin")
	}
	assert.LessOrEqual(t, sol.NumberOfItems, 4)
	assert.GreaterOrEqual(t, sol.NumberOfItems, 1)
}
