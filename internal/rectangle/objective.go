package rectangle

import (
	"math"

	"github.com/piwi3910/packingsolver/internal/model"
)

// Better reports whether n1 is strictly better than n2 under the scheme's
// instance objective, dispatching on model.Objective: profit then waste for
// Default and VariableSizedBinPacking, profit only for Knapsack, profit then
// axle overweight for SequentialOneDimensionalRectangleSubproblem,
// leaf-then-bin-count for BinPacking (then leftover value for
// BinPackingWithLeftovers), leaf-then-extent for OpenDimensionX/Y.
func (s *Scheme) Better(n1, n2 *Node) bool {
	if n1 == nil {
		return false
	}
	if n2 == nil {
		return true
	}
	switch s.Instance.Objective {
	case model.BinPacking:
		return betterBinPacking(s, n1, n2)
	case model.BinPackingWithLeftovers:
		return betterBinPackingWithLeftovers(s, n1, n2)
	case model.OpenDimensionX:
		return betterOpenDimension(s, n1, n2, true)
	case model.OpenDimensionY:
		return betterOpenDimension(s, n1, n2, false)
	case model.Knapsack:
		return n1.Profit > n2.Profit
	case model.SequentialOneDimensionalRectangleSubproblem:
		if n1.Profit != n2.Profit {
			return n1.Profit > n2.Profit
		}
		return axleOverweight(n1) < axleOverweight(n2)
	default: // Default, VariableSizedBinPacking
		if n1.Profit != n2.Profit {
			return n1.Profit > n2.Profit
		}
		return n1.Waste < n2.Waste
	}
}

// Bound reports whether n1 can be pruned against incumbent n2: true means
// no descendant of n1 can beat n2.
func (s *Scheme) Bound(n1, n2 *Node) bool {
	if n2 == nil {
		return false
	}
	switch s.Instance.Objective {
	case model.BinPacking, model.VariableSizedBinPacking:
		return minimumBinsToAbsorb(s, n1) >= n2.NumberOfBins
	case model.BinPackingWithLeftovers:
		return leftoverValue(s, n1) <= leftoverValue(s, n2)
	case model.OpenDimensionX, model.OpenDimensionY:
		return boundOpenDimension(s, n1, n2)
	default:
		return false
	}
}

func axleOverweight(n *Node) float64 { return 0 } // tracked on box-stacks only

func minimumBinsToAbsorb(s *Scheme, n *Node) int {
	if len(s.Instance.BinTypes) == 0 {
		return n.NumberOfBins
	}
	binArea := s.Instance.BinTypes[n.BinTypeID].Area()
	if binArea <= 0 {
		return n.NumberOfBins
	}
	remaining := s.Instance.ItemArea - (n.ItemArea + n.Waste)
	if remaining <= 0 {
		return n.NumberOfBins
	}
	extra := int(math.Ceil(remaining / binArea))
	return n.NumberOfBins + extra
}

func leftoverValue(s *Scheme, n *Node) float64 {
	if len(s.Instance.BinTypes) == 0 {
		return 0
	}
	bt := s.Instance.BinTypes[n.BinTypeID]
	return bt.Area()*float64(n.NumberOfBins) - n.ItemArea
}

func betterBinPacking(s *Scheme, n1, n2 *Node) bool {
	l1, l2 := s.Leaf(n1), s.Leaf(n2)
	if l1 != l2 {
		return l1
	}
	return n1.NumberOfBins < n2.NumberOfBins
}

func betterBinPackingWithLeftovers(s *Scheme, n1, n2 *Node) bool {
	l1, l2 := s.Leaf(n1), s.Leaf(n2)
	if l1 != l2 {
		return l1
	}
	if n1.NumberOfBins != n2.NumberOfBins {
		return n1.NumberOfBins < n2.NumberOfBins
	}
	return leftoverValue(s, n1) < leftoverValue(s, n2)
}

func betterOpenDimension(s *Scheme, n1, n2 *Node, alongX bool) bool {
	l1, l2 := s.Leaf(n1), s.Leaf(n2)
	if l1 != l2 {
		return l1
	}
	if alongX {
		return n1.XMax < n2.XMax
	}
	return extentY(n1) < extentY(n2)
}

// extentY returns the highest item top on n's frontier. Segments still
// seeded from the bin (ItemTypeID -1) always reach the bin's top, so they
// are skipped.
func extentY(n *Node) float64 {
	var y float64
	for _, seg := range n.UncoveredItems {
		if seg.ItemTypeID >= 0 && seg.Ye > y {
			y = seg.Ye
		}
	}
	return y
}

func boundOpenDimension(s *Scheme, n1, n2 *Node) bool {
	if len(s.Instance.BinTypes) == 0 {
		return false
	}
	bt := s.Instance.BinTypes[n1.BinTypeID]
	if bt.X <= 0 {
		return false
	}
	if s.Instance.Objective == model.OpenDimensionY {
		return (n1.Waste+n1.ItemArea)/bt.X >= extentY(n2)
	}
	lowerBound := (n1.Waste + n1.ItemArea) / bt.Y
	return lowerBound >= n2.XMax
}
