// Package boxstacks implements the stack-aware branching scheme: the
// rectangle skyline generalized so each uncovered segment carries the
// vertical stack resting on its footprint, plus semi-trailer-truck
// axle-weight tracking.
package boxstacks

import (
	"math"

	"github.com/piwi3910/packingsolver/internal/model"
)

const pstol = 1e-6

// Stack is the vertical composition resting on one skyline footprint.
type Stack struct {
	ItemTypeIDs    []int
	Weight         float64
	Ze             float64
	GroupID        int
	StackabilityID int

	// RemainingWeight bounds how much more weight may ever rest on top of
	// this stack: the binding minimum, over every item already in the
	// stack, of that item's own maximum_weight_above less the weight
	// already resting on it. Unconstrained
	// (MaximumWeightAbove <= 0 for every item so far) is represented as
	// +Inf.
	RemainingWeight float64
}

// UncoveredItem is one skyline segment, carrying the stack sitting on it.
type UncoveredItem struct {
	Xs, Xe float64
	Ys, Ye float64
	Stack  Stack
}

// Insertion places a new stack base, extends an existing stack upward
// ("above"), or bases a stack flush against a lower segment's right edge
// ("left").
type Insertion struct {
	Mode       string // "base", "above", "left"
	SegmentIdx int
	ItemTypeID int
	Rotated    bool
	NewBin     bool
}

// Node is a partial stack-aware placement.
type Node struct {
	Parent *Node
	ID     int

	NumberOfItems int
	ItemCopies    []int
	NumberOfBins  int
	BinTypeID     int

	UncoveredItems []UncoveredItem

	ItemVolume, CurrentVolume float64
	Waste, Profit             float64
	XMax                      float64

	LastBinWeightWeightedSum float64
	LastBinWeight            float64
	MiddleAxleOverweight     float64
	RearAxleOverweight       float64

	LastInsertion Insertion
}

// Scheme implements the stack-aware branching scheme.
type Scheme struct {
	Instance   *model.Instance
	nextNodeID int

	predecessors *dominanceTable
}

// New builds a Scheme over inst, precomputing predecessor dominance from
// the pre-search preparation pass.
func New(inst *model.Instance) *Scheme {
	return &Scheme{Instance: inst, predecessors: buildDominanceTable(inst)}
}

func (s *Scheme) allocNode() int { s.nextNodeID++; return s.nextNodeID }

// Root opens the first bin with one empty skyline segment.
func (s *Scheme) Root() *Node {
	n := &Node{ID: s.allocNode(), ItemCopies: make([]int, len(s.Instance.ItemTypes))}
	if len(s.Instance.BinTypes) > 0 {
		n.BinTypeID = s.Instance.BinTypeIDs[0]
		n.NumberOfBins = 1
		bt := s.Instance.BinTypes[n.BinTypeID]
		n.UncoveredItems = []UncoveredItem{{Xs: 0, Xe: 0, Ys: 0, Ye: bt.Y}}
	}
	return n
}

func remainingCopies(inst *model.Instance, n *Node, itemTypeID int) int {
	t := inst.ItemTypes[itemTypeID]
	if t.Copies == -1 {
		return math.MaxInt32
	}
	return t.Copies - n.ItemCopies[itemTypeID]
}

func stackMaximumWeight(bt model.BinType, footprintArea float64) float64 {
	if bt.MaximumStackDensity <= 0 {
		return bt.MaximumWeight
	}
	byDensity := bt.MaximumStackDensity * footprintArea
	if bt.MaximumWeight > 0 && bt.MaximumWeight < byDensity {
		return bt.MaximumWeight
	}
	return byDensity
}

// Insertions enumerates "above" extensions of every existing stack and
// "base"/"left" placements of new stacks against the skyline, for every
// remaining item type.
func (s *Scheme) Insertions(n *Node) []Insertion {
	var out []Insertion
	if len(s.Instance.BinTypes) == 0 {
		return out
	}
	bt := s.Instance.BinTypes[n.BinTypeID]
	skippedByDominance := s.predecessors.skipSet(n, s.Instance)
	for ti, t := range s.Instance.ItemTypes {
		if skippedByDominance[ti] {
			continue
		}
		if remainingCopies(s.Instance, n, ti) <= 0 {
			continue
		}
		for segIdx, seg := range n.UncoveredItems {
			if s.fitsAbove(seg, t, bt) {
				out = append(out, Insertion{Mode: "above", SegmentIdx: segIdx, ItemTypeID: ti})
			}
			if s.fitsBase(n.UncoveredItems, segIdx, t, bt, false) {
				out = append(out, Insertion{Mode: "base", SegmentIdx: segIdx, ItemTypeID: ti})
			}
			if !t.Oriented && t.Rotations.Allows(model.RotationXY) && s.fitsBase(n.UncoveredItems, segIdx, t, bt, true) {
				out = append(out, Insertion{Mode: "base", SegmentIdx: segIdx, ItemTypeID: ti, Rotated: true})
			}
			if s.fitsLeft(n.UncoveredItems, segIdx, t, bt, false) {
				out = append(out, Insertion{Mode: "left", SegmentIdx: segIdx, ItemTypeID: ti})
			}
			if !t.Oriented && t.Rotations.Allows(model.RotationXY) && s.fitsLeft(n.UncoveredItems, segIdx, t, bt, true) {
				out = append(out, Insertion{Mode: "left", SegmentIdx: segIdx, ItemTypeID: ti, Rotated: true})
			}
		}
	}
	if len(out) == 0 {
		out = append(out, Insertion{Mode: "base", NewBin: true})
	}
	return out
}

func (s *Scheme) fitsAbove(seg UncoveredItem, t model.ItemType, bt model.BinType) bool {
	if len(seg.Stack.ItemTypeIDs) == 0 {
		return false
	}
	if seg.Stack.StackabilityID != t.StackabilityID {
		return false
	}
	if seg.Stack.GroupID != t.GroupID {
		return false
	}
	if seg.Stack.Ze+t.Z > bt.Z+pstol && bt.Z > 0 {
		return false
	}
	if math.Abs(t.W-(seg.Xe-seg.Xs)) > pstol || math.Abs(t.H-(seg.Ye-seg.Ys)) > pstol {
		return false // footprint differs from the stack it would rest on
	}
	footprintArea := (seg.Xe - seg.Xs) * (seg.Ye - seg.Ys)
	capacity := stackMaximumWeight(bt, footprintArea)
	if seg.Stack.Weight+t.Weight > capacity+pstol {
		return false
	}
	stackCap := t.MaximumStackability
	for _, id := range seg.Stack.ItemTypeIDs {
		if m := s.Instance.ItemTypes[id].MaximumStackability; m < stackCap {
			stackCap = m
		}
	}
	if len(seg.Stack.ItemTypeIDs)+1 > stackCap {
		return false
	}
	if t.Weight > seg.Stack.RemainingWeight+pstol {
		return false // would overload an item already in the stack's maximum_weight_above
	}
	return true
}

// pushAboveRemainingWeight returns the stack's RemainingWeight once t is
// added on top: bounded by both what was left before (minus t's own
// weight, since that capacity is now spent) and t's own ceiling on what may
// rest above it.
func pushAboveRemainingWeight(stackRemaining float64, t model.ItemType) float64 {
	remaining := stackRemaining - t.Weight
	if t.MaximumWeightAbove > 0 && t.MaximumWeightAbove < remaining {
		remaining = t.MaximumWeightAbove
	}
	return remaining
}

func newStackRemainingWeight(t model.ItemType) float64 {
	if t.MaximumWeightAbove > 0 {
		return t.MaximumWeightAbove
	}
	return math.Inf(1)
}

// flushLeftXForRange returns the smallest x such that no uncovered segment
// overlapping [ys,ye) has a stack footprint extending past it — the
// proper multi-segment skyline scan, as opposed to anchoring against a
// single segment's own edge.
func flushLeftXForRange(items []UncoveredItem, ys, ye float64) float64 {
	var x float64
	for _, r := range items {
		if r.Ys >= ye || r.Ye <= ys {
			continue
		}
		if r.Xe > x {
			x = r.Xe
		}
	}
	return x
}

// fitsBase checks a "base" placement: a new stack anchored flush against
// segIdx's own edge (valid when no taller neighboring segment reaches
// further right over the item's y-range).
func (s *Scheme) fitsBase(items []UncoveredItem, segIdx int, t model.ItemType, bt model.BinType, rotated bool) bool {
	w, h := t.W, t.H
	if rotated {
		w, h = h, w
	}
	seg := items[segIdx]
	if seg.Ys+h > bt.Y+pstol {
		return false
	}
	xs := seg.Xe
	if xs != flushLeftXForRange(items, seg.Ys, seg.Ys+h) {
		return false // a neighboring segment reaches further right; only "left" applies here
	}
	if xs+w > bt.X+pstol {
		return false
	}
	if bt.AnyDefectIntersects(xs, seg.Ys, xs+w, seg.Ys+h) {
		return false
	}
	return true
}

// fitsLeft checks the "left" variant: a new stack anchored against the
// right edge of a lower neighboring segment rather than segIdx's own edge.
func (s *Scheme) fitsLeft(items []UncoveredItem, segIdx int, t model.ItemType, bt model.BinType, rotated bool) bool {
	w, h := t.W, t.H
	if rotated {
		w, h = h, w
	}
	seg := items[segIdx]
	if seg.Ys+h > bt.Y+pstol {
		return false
	}
	xs := flushLeftXForRange(items, seg.Ys, seg.Ys+h)
	if xs <= seg.Xe+pstol {
		return false // coincides with (or is dominated by) the plain base placement
	}
	if xs+w > bt.X+pstol {
		return false
	}
	if bt.AnyDefectIntersects(xs, seg.Ys, xs+w, seg.Ys+h) {
		return false
	}
	return true
}

// Child computes the successor node.
func (s *Scheme) Child(n *Node, ins Insertion) *Node {
	if ins.NewBin {
		return s.childNewBin(n)
	}
	bt := s.Instance.BinTypes[n.BinTypeID]
	t := s.Instance.ItemTypes[ins.ItemTypeID]

	c := &Node{
		Parent:        n,
		ID:            s.allocNode(),
		NumberOfItems: n.NumberOfItems + 1,
		ItemCopies:    append([]int(nil), n.ItemCopies...),
		NumberOfBins:  n.NumberOfBins,
		BinTypeID:     n.BinTypeID,
		ItemVolume:    n.ItemVolume + t.Volume(),
		Profit:        n.Profit + t.Profit,
		LastInsertion: ins,
	}
	c.ItemCopies[ins.ItemTypeID]++
	c.UncoveredItems = append([]UncoveredItem(nil), n.UncoveredItems...)

	switch ins.Mode {
	case "above":
		seg := &c.UncoveredItems[ins.SegmentIdx]
		seg.Stack.ItemTypeIDs = append(append([]int(nil), seg.Stack.ItemTypeIDs...), ins.ItemTypeID)
		seg.Stack.Weight += t.Weight
		seg.Stack.Ze += t.Z
		seg.Stack.RemainingWeight = pushAboveRemainingWeight(seg.Stack.RemainingWeight, t)
	default: // base, left
		w, h := t.W, t.H
		if ins.Rotated {
			w, h = h, w
		}
		seg := n.UncoveredItems[ins.SegmentIdx]
		xs := seg.Xe
		if ins.Mode == "left" {
			xs = flushLeftXForRange(n.UncoveredItems, seg.Ys, seg.Ys+h)
		}
		c.UncoveredItems[ins.SegmentIdx] = UncoveredItem{
			Xs: xs, Xe: xs + w, Ys: seg.Ys, Ye: seg.Ys + h,
			Stack: Stack{
				ItemTypeIDs: []int{ins.ItemTypeID}, Weight: t.Weight, Ze: t.Z,
				GroupID: t.GroupID, StackabilityID: t.StackabilityID,
				RemainingWeight: newStackRemainingWeight(t),
			},
		}
	}

	x := n.XMax
	weightedSum := n.LastBinWeightWeightedSum + (c.UncoveredItems[ins.SegmentIdx].Xs+0.5*(c.UncoveredItems[ins.SegmentIdx].Xe-c.UncoveredItems[ins.SegmentIdx].Xs))*t.Weight
	weight := n.LastBinWeight + t.Weight
	for _, seg := range c.UncoveredItems {
		if seg.Xe > x {
			x = seg.Xe
		}
	}
	c.XMax = x
	c.LastBinWeightWeightedSum = weightedSum
	c.LastBinWeight = weight

	if bt.Truck.RearAxlePosition > 0 {
		middle, rear := bt.Truck.ComputeAxleWeights(weightedSum, weight, bt.X)
		if over := middle - bt.Truck.MiddleAxleMaximumWeight; over > 0 {
			c.MiddleAxleOverweight = over
		}
		if over := rear - bt.Truck.RearAxleMaximumWeight; over > 0 {
			c.RearAxleOverweight = over
		}
	}

	c.CurrentVolume = currentVolume(c.UncoveredItems)
	c.Waste = c.CurrentVolume - c.ItemVolume
	if c.Waste < -pstol {
		c.Waste = 0
	}
	return c
}

func currentVolume(items []UncoveredItem) float64 {
	var v float64
	for _, seg := range items {
		footprint := (seg.Xe - seg.Xs) * (seg.Ye - seg.Ys)
		v += footprint * seg.Stack.Ze
	}
	return v
}

func (s *Scheme) childNewBin(n *Node) *Node {
	pos := n.NumberOfBins
	if pos >= len(s.Instance.BinTypeIDs) {
		return nil
	}
	binTypeID := s.Instance.BinTypeIDs[pos]
	bt := s.Instance.BinTypes[binTypeID]
	return &Node{
		Parent:        n,
		ID:            s.allocNode(),
		NumberOfItems: n.NumberOfItems,
		ItemCopies:    append([]int(nil), n.ItemCopies...),
		NumberOfBins:  n.NumberOfBins + 1,
		BinTypeID:     binTypeID,
		ItemVolume:    n.ItemVolume,
		Profit:        n.Profit,
		UncoveredItems: []UncoveredItem{{Xs: 0, Xe: 0, Ys: 0, Ye: bt.Y}},
		LastInsertion: Insertion{NewBin: true},
	}
}

// Leaf reports whether every item type's copies are fully packed.
func (s *Scheme) Leaf(n *Node) bool {
	for ti := range s.Instance.ItemTypes {
		if remainingCopies(s.Instance, n, ti) > 0 {
			return false
		}
	}
	return true
}

// Better ranks a leaf ahead of a non-leaf, then lower total axle
// overweight (middle plus rear), then the rectangle-family
// profit/waste/bin-count order (see internal/rectangle/objective.go). The
// overweight term is compared at every node, whether or not any group's
// items are all placed, and overweight never rejects a node outright.
func (s *Scheme) Better(n1, n2 *Node) bool {
	if n1 == nil {
		return false
	}
	if n2 == nil {
		return true
	}
	if s.Leaf(n1) != s.Leaf(n2) {
		return s.Leaf(n1)
	}
	o1 := n1.MiddleAxleOverweight + n1.RearAxleOverweight
	o2 := n2.MiddleAxleOverweight + n2.RearAxleOverweight
	if o1 != o2 {
		return o1 < o2
	}
	switch s.Instance.Objective {
	case model.BinPacking, model.VariableSizedBinPacking:
		return n1.NumberOfBins < n2.NumberOfBins
	case model.Knapsack:
		return n1.Profit > n2.Profit
	default:
		if n1.Profit != n2.Profit {
			return n1.Profit > n2.Profit
		}
		return n1.Waste < n2.Waste
	}
}

func (s *Scheme) Bound(n1, n2 *Node) bool {
	if n2 == nil {
		return false
	}
	if s.Instance.Objective != model.BinPacking && s.Instance.Objective != model.VariableSizedBinPacking {
		return false
	}
	if len(s.Instance.BinTypes) == 0 {
		return false
	}
	binVolume := s.Instance.BinTypes[n1.BinTypeID].Volume()
	if binVolume <= 0 {
		return false
	}
	remaining := s.Instance.ItemVolume - (n1.ItemVolume + n1.Waste)
	if remaining <= 0 {
		return n1.NumberOfBins >= n2.NumberOfBins
	}
	extra := int(math.Ceil(remaining / binVolume))

	// Tighten with the pre-search 1D subset-sum x-extent bound: a bin can
	// never host more total x-extent than xExtentBound, so the remaining
	// items' combined width also lower-bounds the bins still needed.
	if s.predecessors != nil && s.predecessors.xExtentBound > 0 {
		var remainingWidth float64
		for ti, t := range s.Instance.ItemTypes {
			if t.Copies == -1 {
				continue // unbounded supply gives no finite width-demand bound
			}
			remainingWidth += float64(remainingCopies(s.Instance, n1, ti)) * t.W
		}
		extraByWidth := int(math.Ceil(remainingWidth / s.predecessors.xExtentBound))
		if extraByWidth > extra {
			extra = extraByWidth
		}
	}
	return n1.NumberOfBins+extra >= n2.NumberOfBins
}

// ToSolution materializes stacks and their items along the chain to n.
func (s *Scheme) ToSolution(n *Node) (*model.Solution, error) {
	chain := nodeChain(n)
	b := model.NewSolutionBuilder(s.Instance)
	binPos := -1
	stackIDs := map[int]int{} // segment index -> stack id in the builder
	for _, step := range chain {
		if step.Parent == nil {
			binPos = b.AddBin(step.BinTypeID, 0)
			continue
		}
		ins := step.LastInsertion
		if ins.NewBin {
			binPos = b.AddBin(step.BinTypeID, 0)
			stackIDs = map[int]int{}
			continue
		}
		seg := step.UncoveredItems[ins.SegmentIdx]
		rot := model.RotationNone
		if ins.Rotated {
			rot = model.RotationXY
		}
		var z float64
		if ins.Mode == "above" {
			z = seg.Stack.Ze - s.Instance.ItemTypes[ins.ItemTypeID].Z
		} else {
			stackID := b.AddStack(binPos, seg.Xs, seg.Xe, seg.Ys, seg.Ye)
			stackIDs[ins.SegmentIdx] = stackID
		}
		if err := b.AddItem(binPos, ins.ItemTypeID, seg.Xs, seg.Ys, z, rot); err != nil {
			return nil, err
		}
	}
	sol := b.Solution()
	sol.MiddleAxleOverweight = n.MiddleAxleOverweight
	sol.RearAxleOverweight = n.RearAxleOverweight
	return sol, nil
}

func nodeChain(n *Node) []*Node {
	var chain []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// NodeHasher keys equivalence on bin type and the skyline segments
// (footprint + resting stack weight/height), per the geometric-frontier-
// only contract.
func (s *Scheme) NodeHasher() (equal func(a, b *Node) bool, hash func(n *Node) uint64) {
	equal = func(a, b *Node) bool {
		if a.BinTypeID != b.BinTypeID || len(a.UncoveredItems) != len(b.UncoveredItems) {
			return false
		}
		for i := range a.UncoveredItems {
			sa, sb := a.UncoveredItems[i], b.UncoveredItems[i]
			if math.Abs(sa.Xe-sb.Xe) > pstol || math.Abs(sa.Ys-sb.Ys) > pstol || math.Abs(sa.Ye-sb.Ye) > pstol ||
				math.Abs(sa.Stack.Weight-sb.Stack.Weight) > pstol || math.Abs(sa.Stack.Ze-sb.Stack.Ze) > pstol {
				return false
			}
		}
		return true
	}
	hash = func(n *Node) uint64 {
		h := uint64(14695981039346656037)
		mix := func(v float64) {
			h ^= math.Float64bits(v)
			h *= 1099511628211
		}
		mix(float64(n.BinTypeID))
		for _, seg := range n.UncoveredItems {
			mix(seg.Xe)
			mix(seg.Ys)
			mix(seg.Ye)
			mix(seg.Stack.Weight)
			mix(seg.Stack.Ze)
		}
		return h
	}
	return equal, hash
}
