package box

import "github.com/piwi3910/packingsolver/internal/model"

// dominanceTable precomputes, for each ordered pair of item types, whether
// the first is a predecessor that dominates the second: same footprint up
// to the rotations both types allow, with the predecessor at least as
// profitable and no heavier. A predecessor with remaining copies makes its
// dominated successor type unusable at that node.
type dominanceTable struct {
	dominatedBy [][]int // dominatedBy[t] = item type ids that dominate t
}

func buildDominanceTable(inst *model.Instance) *dominanceTable {
	n := len(inst.ItemTypes)
	d := &dominanceTable{dominatedBy: make([][]int, n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if dominates(inst.ItemTypes[i], inst.ItemTypes[j]) {
				d.dominatedBy[j] = append(d.dominatedBy[j], i)
			}
		}
	}
	return d
}

// sortedTriplet returns (w,h,z) sorted ascending, so two footprints that
// differ only by a rotation compare equal.
func sortedTriplet(w, h, z float64) (a, b, c float64) {
	v := [3]float64{w, h, z}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if v[j] < v[i] {
				v[i], v[j] = v[j], v[i]
			}
		}
	}
	return v[0], v[1], v[2]
}

// dominates reports whether item type a is a predecessor that dominates
// item type b: the same box up to rotation, at least as profitable, and no
// heavier, making b strictly redundant whenever a remains available.
func dominates(a, b model.ItemType) bool {
	aw, ah, az := sortedTriplet(a.W, a.H, a.Z)
	bw, bh, bz := sortedTriplet(b.W, b.H, b.Z)
	if aw != bw || ah != bh || az != bz {
		return false
	}
	for _, rb := range allRotations {
		if !b.Rotations.Allows(rb) {
			continue
		}
		bx, by, bz := dims(b, rb)
		matched := false
		for _, ra := range allRotations {
			if ax, ay, az := dims(a, ra); a.Rotations.Allows(ra) && ax == bx && ay == by && az == bz {
				matched = true
				break
			}
		}
		if !matched {
			return false // b has an orientation a cannot reproduce
		}
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
