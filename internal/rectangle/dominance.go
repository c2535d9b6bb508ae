package rectangle

import "github.com/piwi3910/packingsolver/internal/model"

// dominanceTable precomputes, for each ordered pair of item types, whether
// the first is a predecessor that dominates the second under one of three
// strategies: 0 = profit only, 1 = profit and weight (weight ≥), 2 = profit
// and weight (weight =). A predecessor with remaining copies makes its
// dominated successor types unusable at that node.
type dominanceTable struct {
	dominatedBy [][]int // dominatedBy[t] = item type ids that dominate t
	strategy    int
}

func buildDominanceTable(inst *model.Instance, strategy int) *dominanceTable {
	n := len(inst.ItemTypes)
	d := &dominanceTable{dominatedBy: make([][]int, n), strategy: strategy}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if dominates(inst.ItemTypes[i], inst.ItemTypes[j], strategy) {
				d.dominatedBy[j] = append(d.dominatedBy[j], i)
			}
		}
	}
	return d
}

// dominates reports whether item type a is a predecessor that dominates
// item type b: same footprint (allowing the width/height swap when both are
// unoriented), and a is at least as profitable — and, under the weight-
// aware strategies, at least as light — making b strictly redundant
// whenever a remains available.
func dominates(a, b model.ItemType, strategy int) bool {
	sameFootprint := (a.W == b.W && a.H == b.H)
	swappedFootprint := !a.Oriented && !b.Oriented && a.W == b.H && a.H == b.W
	if !sameFootprint && !swappedFootprint {
		return false
	}
	if a.Profit < b.Profit {
		return false
	}
	switch strategy {
	case 1:
		if a.Weight > b.Weight {
			return false
		}
	case 2:
		if a.Weight != b.Weight {
			return false
		}
	}
	if a.Profit == b.Profit && a.ID >= b.ID {
		return false // tie-break by id
	}
	return true
}

// skipSet returns, for node n, the set of item-type ids that must be
// skipped when enumerating insertions because a dominating predecessor
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
