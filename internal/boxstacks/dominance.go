package boxstacks

import "github.com/piwi3910/packingsolver/internal/model"

// maxDFSNodes bounds the feasible-stack-composition search below: past this
// many explored compositions in total, over every (group, stackability)
// class, the DFS stops and the classes already seen stand in for the full
// enumeration.
const maxDFSNodes = 1000

// dominanceTable is the pre-search preparation result: for each ordered pair
// of item types sharing a (group, stackability) class, whether the first
// may-dominate the second, plus the 1D subset-sum x-extent upper bound.
type dominanceTable struct {
	dominatedBy  [][]int // dominatedBy[t] = item type ids that dominate t
	xExtentBound float64
}

// buildDominanceTable runs the bounded-DFS feasible-stack-composition
// enumeration per (group, stackability) class, derives a pairwise
// may-dominate relation from the classes it visits, and solves the 1D
// multiple-choice subset-sum lifting an x-extent upper bound.
func buildDominanceTable(inst *model.Instance) *dominanceTable {
	n := len(inst.ItemTypes)
	d := &dominanceTable{dominatedBy: make([][]int, n)}

	classes := feasibleStackClasses(inst)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			a, b := inst.ItemTypes[i], inst.ItemTypes[j]
			if a.GroupID != b.GroupID || a.StackabilityID != b.StackabilityID {
				continue
			}
			if !classes[stackClassKey(a)] {
				continue // no feasible composition reached this class within the DFS bound
			}
			if dominates(a, b) {
				d.dominatedBy[j] = append(d.dominatedBy[j], i)
			}
		}
	}

	d.xExtentBound = subsetSumXExtentBound(inst)
	return d
}

type stackClass struct {
	group, stackability int
}

func stackClassKey(t model.ItemType) stackClass {
	return stackClass{group: t.GroupID, stackability: t.StackabilityID}
}

// feasibleStackClasses enumerates, via a depth-bounded DFS over growing
// stacks (an item type appended per step, stopping when the item's
// maximum stackability or the bin's stack-weight ceiling is exhausted;
// copies are not counted), every (group, stackability)
// class for which at least one feasible composition exists. Explores at
// most maxDFSNodes compositions in total.
func feasibleStackClasses(inst *model.Instance) map[stackClass]bool {
	seen := map[stackClass]bool{}
	if len(inst.BinTypes) == 0 {
		return seen
	}
	bt := inst.BinTypes[0]
	explored := 0

	var dfs func(weight float64, count, itemTypeID int)
	dfs = func(weight float64, count, itemTypeID int) {
		if explored >= maxDFSNodes {
			return
		}
		explored++
		t := inst.ItemTypes[itemTypeID]
		seen[stackClassKey(t)] = true
		if count+1 > t.MaximumStackability {
			return
		}
		capacity := stackMaximumWeight(bt, t.Area())
		if weight+t.Weight > capacity+pstol {
			return
		}
		for _, next := range inst.ItemTypes {
			if next.GroupID != t.GroupID || next.StackabilityID != t.StackabilityID {
				continue
			}
			if explored >= maxDFSNodes {
				return
			}
			dfs(weight+t.Weight, count+1, next.ID)
		}
	}
	for _, t := range inst.ItemTypes {
		if explored >= maxDFSNodes {
			break
		}
		dfs(0, 0, t.ID)
	}
	return seen
}

// dominates reports whether item type a may-dominate b within their shared
// (group, stackability) class: the same footprint up to an orientation
// swap, at least as profitable, and no heavier.
func dominates(a, b model.ItemType) bool {
	sameFootprint := a.W == b.W && a.H == b.H
	swapped := !a.Oriented && !b.Oriented && a.W == b.H && a.H == b.W
	if !sameFootprint && !swapped {
		return false
	}
	if a.Profit < b.Profit {
		return false
	}
	if a.Weight > b.Weight {
		return false
	}
	if a.Profit == b.Profit && a.Weight == b.Weight && a.ID >= b.ID {
		return false // tie-break by id
	}
	return true
}

// subsetSumXExtentBound solves a 1D multiple-choice subset-sum over item
// widths (each item type contributing its width up to its copies count,
// taken once at construction) to find the largest total extent not exceeding the bin's x
// dimension — an upper bound on how much x-extent the remaining items can
// actually occupy, used to tighten Bound().
func subsetSumXExtentBound(inst *model.Instance) float64 {
	if len(inst.BinTypes) == 0 {
		return 0
	}
	limit := inst.BinTypes[0].X
	if limit <= 0 {
		return 0
	}
	const gridSteps = 2000
	step := limit / gridSteps
	if step <= 0 {
		return limit
	}
	reachable := make([]bool, gridSteps+1)
	reachable[0] = true
	for _, t := range inst.ItemTypes {
		copies := t.Copies
		if copies < 0 {
			copies = gridSteps // effectively unlimited within the grid
		}
		width := t.W
		if width <= 0 {
			continue
		}
		wSteps := int(width / step)
		if wSteps <= 0 {
			continue
		}
		for c := 0; c < copies; c++ {
			advanced := false
			for x := gridSteps; x >= wSteps; x-- {
				if reachable[x-wSteps] && !reachable[x] {
					reachable[x] = true
					advanced = true
				}
			}
			if !advanced {
				break
			}
		}
	}
	best := 0
	for x := gridSteps; x >= 0; x-- {
		if reachable[x] {
			best = x
			break
		}
	}
	return float64(best) * step
}

// skipSet returns, for node n, the set of item-type ids that must be
// skipped when enumerating insertions because a may-dominating predecessor
// still has remaining copies.
func (d *dominanceTable) skipSet(n *Node, inst *model.Instance) map[int]bool {
	skip := map[int]bool{}
	for t, preds := range d.dominatedBy {
		for _, p := range preds {
			if remainingCopies(inst, n, p) > 0 {
				skip[t] = true
				break
			}
		}
	}
	return skip
}
