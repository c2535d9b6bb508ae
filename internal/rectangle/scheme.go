// Package rectangle implements the free-2D (skyline) branching scheme:
// axis-aligned rectangles packed left-justified against a staircase
// decomposition of the already-covered region.
package rectangle

import (
	"math"

	"github.com/piwi3910/packingsolver/internal/model"
)

const pstol = 1e-6

// UncoveredItem is one segment of the staircase decomposition of the top of
// the currently packed region: the rightmost filled x for the y-interval
// [Ys, Ye]. ItemTypeID is -1 for the segment seeded at the bin's left edge
// (x = 0).
type UncoveredItem struct {
	ItemTypeID int
	Xs, Xe     float64
	XeDominance float64
	Ys, Ye     float64
}

// Insertion describes placing one item at a position, or, with NewBin set,
// opening a new bin.
type Insertion struct {
	ItemTypeID int
	Rotated    bool
	X, Y       float64
	NewBin     bool
}

// Node is one partial placement in the rectangle branching scheme's search
// tree. Nodes are shared between parent and descendants; they are created
// by Child and never mutated after construction.
type Node struct {
	Parent *Node
	ID     int

	NumberOfItems       int
	ItemCopies          []int // per item-type-id remaining-copies counter, indexed like Instance.ItemTypes
	NumberOfBins        int
	BinTypeID           int // bin type of the currently open bin

	UncoveredItems []UncoveredItem

	ItemArea, CurrentArea float64
	Waste                 float64
	Profit                float64

	LastBinWeight            float64
	LastBinWeightWeightedSum float64
	XMin, XMax               float64

	LastInsertion Insertion

	// FixedXMax is the x beyond which fixed-items replay forbids insertions
	// to precede. Zero when no external partial solution was supplied.
	FixedXMax float64
}

// Parameters tunes the scheme's behaviour.
type Parameters struct {
	Staircase           bool
	PredecessorStrategy int // 0, 1 or 2 — see dominance.go

	// FixedItems is an externally supplied partial solution the root is
	// built from by x-sorted replay; insertions preceding its frontier are
	// then forbidden. Nil means no fixed items.
	FixedItems []Insertion
}

// DefaultParameters returns the scheme's zero-impact configuration.
func DefaultParameters() Parameters {
	return Parameters{Staircase: true, PredecessorStrategy: 0}
}

// Scheme implements the rectangle skyline branching scheme for one bin
// type group within inst. It satisfies the ibs.Scheme contract: Root,
// Children, Better, Bound, Leaf, ToSolution, NodeHasher.
type Scheme struct {
	Instance   *model.Instance
	Parameters Parameters

	predecessors *dominanceTable
	nextNodeID   int
}

// New builds a Scheme over inst, precomputing predecessor dominance.
func New(inst *model.Instance, params Parameters) *Scheme {
	s := &Scheme{Instance: inst, Parameters: params}
	s.predecessors = buildDominanceTable(inst, params.PredecessorStrategy)
	return s
}

func (s *Scheme) allocNode() int {
	s.nextNodeID++
	return s.nextNodeID
}

// Root returns the initial node: no items placed, one bin opened (or, with
// FixedItems set, the replay of the supplied partial solution).
func (s *Scheme) Root() *Node {
	n := &Node{
		ID:         s.allocNode(),
		ItemCopies: make([]int, len(s.Instance.ItemTypes)),
	}
	if len(s.Instance.BinTypes) > 0 {
		n.BinTypeID = s.Instance.BinTypeIDs[0]
		n.NumberOfBins = 1
		bt := s.Instance.BinTypes[n.BinTypeID]
		n.UncoveredItems = []UncoveredItem{{ItemTypeID: -1, Xs: 0, Xe: 0, Ys: 0, Ye: bt.Y}}
	}
	if len(s.Parameters.FixedItems) > 0 {
		n = s.replayFixedItems(n)
	}
	return n
}

func (s *Scheme) replayFixedItems(root *Node) *Node {
	items := append([]Insertion(nil), s.Parameters.FixedItems...)
	// x-sorted replay, per the fixed-items contract.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].X < items[j-1].X; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	n := root
	for _, ins := range items {
		c := s.Child(n, ins)
		if c != nil {
			n = c
		}
	}
	n.FixedXMax = n.XMax
	return n
}

// remainingCopies returns how many more of item type t the node may still
// place, accounting for -1 ("unlimited") copies.
func remainingCopies(inst *model.Instance, n *Node, itemTypeID int) int {
	t := inst.ItemTypes[itemTypeID]
	if t.Copies == -1 {
		return math.MaxInt32
	}
	return t.Copies - n.ItemCopies[itemTypeID]
}

// Insertions enumerates every feasible Insertion from node n.
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
		out = append(out, s.insertionsForItem(n, bt, ti, t, false)...)
		if t.Oriented == false && t.Rotations.Allows(model.RotationXY) {
			out = append(out, s.insertionsForItem(n, bt, ti, t, true)...)
		}
		if len(bt.Defects) > 0 {
			out = append(out, s.insertionsAgainstDefects(n, bt, ti, t, false)...)
			if t.Oriented == false && t.Rotations.Allows(model.RotationXY) {
				out = append(out, s.insertionsAgainstDefects(n, bt, ti, t, true)...)
			}
		}
	}
	if len(out) == 0 {
		out = append(out, Insertion{NewBin: true})
	}
	return out
}

func (s *Scheme) insertionsForItem(n *Node, bt model.BinType, ti int, t model.ItemType, rotated bool) []Insertion {
	w, h := t.W, t.H
	if rotated {
		w, h = h, w
	}
	var out []Insertion
	for segIdx, seg := range n.UncoveredItems {
		ys := seg.Ys
		if ys+h > bt.Y+pstol {
			continue
		}
		xs := flushLeftX(n.UncoveredItems, segIdx, h)
		if xs+w > bt.X+pstol {
			continue
		}
		if n.LastBinWeight+t.Weight > bt.MaximumWeight*(1+pstol) && bt.MaximumWeight > 0 {
			continue
		}
		if xs < n.FixedXMax-pstol {
			continue
		}
		if s.Parameters.Staircase && violatesStaircase(n.UncoveredItems, segIdx, xs, seg.Ye) {
			continue
		}
		if segIdx > 0 && xs+w <= n.UncoveredItems[segIdx-1].Xs+pstol {
			// Strict predecessor of the segment below: would duplicate a
			// left-flush attempt already produced when that segment is
			// the anchor.
			continue
		}
		if bt.AnyDefectIntersects(xs, ys, xs+w, ys+h) {
			continue
		}
		out = append(out, Insertion{ItemTypeID: ti, Rotated: rotated, X: xs, Y: ys})
	}
	return out
}

// insertionsAgainstDefects enumerates the second insertion mode: an item
// resting on top of a defect, ys pinned to the defect's upper edge, xs slid
// right past every defect it would otherwise still overlap.
func (s *Scheme) insertionsAgainstDefects(n *Node, bt model.BinType, ti int, t model.ItemType, rotated bool) []Insertion {
	w, h := t.W, t.H
	if rotated {
		w, h = h, w
	}
	var out []Insertion
	for _, d := range bt.Defects {
		ys := d.Y + d.LY
		ye := ys + h
		if ye > bt.Y+pstol {
			continue
		}
		xs := flushLeftXForRange(n.UncoveredItems, ys, ye)
		xs = slidePastDefects(bt, xs, ys, w, h)
		if xs+w > bt.X+pstol {
			continue
		}
		if n.LastBinWeight+t.Weight > bt.MaximumWeight*(1+pstol) && bt.MaximumWeight > 0 {
			continue
		}
		if xs < n.FixedXMax-pstol {
			continue
		}
		anchor := segmentIndexContainingY(n.UncoveredItems, ys)
		if s.Parameters.Staircase && violatesStaircase(n.UncoveredItems, anchor, xs, ye) {
			continue
		}
		out = append(out, Insertion{ItemTypeID: ti, Rotated: rotated, X: xs, Y: ys})
	}
	return out
}

// slidePastDefects pushes xs right, as many times as needed, past any
// defect the rectangle [xs,xs+w)x[ys,ys+h) still overlaps.
func slidePastDefects(bt model.BinType, xs, ys, w, h float64) float64 {
	for {
		moved := false
		for _, d := range bt.Defects {
			if d.Intersects(xs, ys, xs+w, ys+h) {
				if far := d.X + d.LX; far > xs {
					xs = far
					moved = true
				}
			}
		}
		if !moved {
			return xs
		}
	}
}

// segmentIndexContainingY returns the index of the uncovered segment
// spanning y, or -1 if none does (y sits on a defect rather than a
// segment boundary already present in the staircase).
func segmentIndexContainingY(items []UncoveredItem, y float64) int {
	for i, seg := range items {
		if seg.Ys <= y+pstol && y < seg.Ye-pstol {
			return i
		}
	}
	return -1
}

// flushLeftX returns the x such that the item sits flush-left against every
// uncovered segment it overlaps in [ys, ys+h).
func flushLeftX(items []UncoveredItem, anchor int, h float64) float64 {
	ys, ye := items[anchor].Ys, items[anchor].Ys+h
	return flushLeftXForRange(items, ys, ye)
}

// flushLeftXForRange returns the x such that an item spanning [ys,ye) sits
// flush-left against every uncovered segment it overlaps.
func flushLeftXForRange(items []UncoveredItem, ys, ye float64) float64 {
	var x float64
	for _, seg := range items {
		if seg.Ye <= ys || seg.Ys >= ye {
			continue
		}
		if seg.Xe > x {
			x = seg.Xe
		}
	}
	return x
}

// violatesStaircase reports whether placing an item up to xe at the anchor
// segment breaks the staircase invariant: no segment above ye may already
// reach further right than xs.
func violatesStaircase(items []UncoveredItem, anchor int, xs, ye float64) bool {
	for i := anchor + 1; i < len(items); i++ {
		if items[i].Ys >= ye-pstol && items[i].Xe > xs+pstol {
			return true
		}
	}
	return false
}

// Child computes the successor node reached by applying ins to n.
func (s *Scheme) Child(n *Node, ins Insertion) *Node {
	if ins.NewBin {
		return s.childNewBin(n)
	}
	t := s.Instance.ItemTypes[ins.ItemTypeID]
	w, h := t.W, t.H
	if ins.Rotated {
		w, h = h, w
	}
	xe, ye := ins.X+w, ins.Y+h

	c := &Node{
		Parent:                   n,
		ID:                       s.allocNode(),
		NumberOfItems:            n.NumberOfItems + 1,
		ItemCopies:               append([]int(nil), n.ItemCopies...),
		NumberOfBins:             n.NumberOfBins,
		BinTypeID:                n.BinTypeID,
		ItemArea:                 n.ItemArea + t.Area(),
		LastBinWeight:            n.LastBinWeight + t.Weight,
		LastBinWeightWeightedSum: n.LastBinWeightWeightedSum + (ins.X+w/2)*t.Weight,
		Profit:                   n.Profit + t.Profit,
		LastInsertion:            ins,
		FixedXMax:                n.FixedXMax,
	}
	c.ItemCopies[ins.ItemTypeID]++
	c.UncoveredItems = spliceUncoveredItems(n.UncoveredItems, UncoveredItem{
		ItemTypeID: ins.ItemTypeID, Xs: ins.X, Xe: xe, XeDominance: xe, Ys: ins.Y, Ye: ye,
	})
	propagateXeDominance(c.UncoveredItems, s.smallestRemainingSide(c))

	c.XMax = n.XMax
	if xe > c.XMax {
		c.XMax = xe
	}
	c.XMin = n.XMin

	bt := s.Instance.BinTypes[c.BinTypeID]
	c.CurrentArea = currentArea(c.UncoveredItems, bt.X)
	c.Waste = c.CurrentArea - c.ItemArea
	if c.Waste < -pstol {
		// Negative waste signals a bug in the scheme, not bad input; it is
		// clamped to 0 here and not reported to the caller.
		c.Waste = 0
	}
	return c
}

func (s *Scheme) childNewBin(n *Node) *Node {
	pos := n.NumberOfBins
	if pos >= len(s.Instance.BinTypeIDs) {
		return nil
	}
	binTypeID := s.Instance.BinTypeIDs[pos]
	bt := s.Instance.BinTypes[binTypeID]
	c := &Node{
		Parent:        n,
		ID:            s.allocNode(),
		NumberOfItems: n.NumberOfItems,
		ItemCopies:    append([]int(nil), n.ItemCopies...),
		NumberOfBins:  n.NumberOfBins + 1,
		BinTypeID:     binTypeID,
		ItemArea:      n.ItemArea,
		Profit:        n.Profit,
		UncoveredItems: []UncoveredItem{{ItemTypeID: -1, Xs: 0, Xe: 0, Ys: 0, Ye: bt.Y}},
		LastInsertion: Insertion{NewBin: true},
	}
	return c
}

func (s *Scheme) smallestRemainingSide(n *Node) float64 {
	best := -1.0
	for ti, t := range s.Instance.ItemTypes {
		if remainingCopies(s.Instance, n, ti) <= 0 {
			continue
		}
		side := math.Min(t.W, t.H)
		if best < 0 || side < best {
			best = side
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

// spliceUncoveredItems inserts a new placed segment into the staircase,
// keeping segments strictly below Ys, splitting the segment spanning Ys,
// and keeping segments strictly above Ye.
func spliceUncoveredItems(items []UncoveredItem, placed UncoveredItem) []UncoveredItem {
	var out []UncoveredItem
	for _, seg := range items {
		if seg.Ye <= placed.Ys+pstol {
			out = append(out, seg)
			continue
		}
		if seg.Ys >= placed.Ye-pstol {
			out = append(out, seg)
			continue
		}
		if seg.Ys < placed.Ys-pstol {
			out = append(out, UncoveredItem{ItemTypeID: seg.ItemTypeID, Xs: seg.Xs, Xe: seg.Xe, Ys: seg.Ys, Ye: placed.Ys})
		}
		if seg.Ye > placed.Ye+pstol {
			out = append(out, UncoveredItem{ItemTypeID: seg.ItemTypeID, Xs: seg.Xs, Xe: seg.Xe, Ys: placed.Ye, Ye: seg.Ye})
		}
	}
	out = append(out, placed)
	sortUncoveredByY(out)
	return out
}

func sortUncoveredByY(items []UncoveredItem) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Ys < items[j-1].Ys; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// propagateXeDominance walks adjacent segments whose height is smaller than
// smallestSide and raises each one's XeDominance to the max of itself and
// its neighbour, so later insertion checks can detect provably dominated
// placements without rescanning the whole staircase.
func propagateXeDominance(items []UncoveredItem, smallestSide float64) {
	for i := range items {
		h := items[i].Ye - items[i].Ys
		if h >= smallestSide {
			continue
		}
		if i > 0 && items[i-1].XeDominance > items[i].XeDominance {
			items[i].XeDominance = items[i-1].XeDominance
		}
		if i+1 < len(items) && items[i+1].XeDominance > items[i].XeDominance {
			items[i].XeDominance = items[i+1].XeDominance
		}
	}
}

func currentArea(items []UncoveredItem, binX float64) float64 {
	var area float64
	for _, seg := range items {
		area += seg.Xe * (seg.Ye - seg.Ys)
	}
	return area
}

// Leaf reports whether every item type's copies are all placed. A node with
// copies left but no room for them is not a leaf.
func (s *Scheme) Leaf(n *Node) bool {
	for ti := range s.Instance.ItemTypes {
		if remainingCopies(s.Instance, n, ti) > 0 {
			return false
		}
	}
	return true
}

// ToSolution materializes a model.Solution from the chain of insertions
// leading to n.
func (s *Scheme) ToSolution(n *Node) (*model.Solution, error) {
	chain := nodeChain(n)
	b := model.NewSolutionBuilder(s.Instance)
	binPos := -1
	for _, step := range chain {
		if step.Parent == nil {
			binPos = b.AddBin(step.BinTypeID, 0)
			continue
		}
		ins := step.LastInsertion
		if ins.NewBin {
			binPos = b.AddBin(step.BinTypeID, 0)
			continue
		}
		rot := model.RotationNone
		if ins.Rotated {
			rot = model.RotationXY
		}
		if err := b.AddItem(binPos, ins.ItemTypeID, ins.X, ins.Y, 0, rot); err != nil {
			return nil, err
		}
	}
	sol := b.Solution()
	if math.Abs(sol.XExtent-n.XMax) > 1e-3 && n.XMax > 0 {
		return nil, model.InfeasibleError("to_solution: x-extent %.6f disagrees with tracked extent %.6f", sol.XExtent, n.XMax)
	}
	return sol, nil
}

// nodeChain returns the root-to-n path, root first.
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

// NodeHasher returns the (equal, hash) pair used for duplicate/domination
// suppression, keyed on the node's geometric frontier only.
func (s *Scheme) NodeHasher() (equal func(a, b *Node) bool, hash func(n *Node) uint64) {
	equal = func(a, b *Node) bool {
		if a.BinTypeID != b.BinTypeID || len(a.UncoveredItems) != len(b.UncoveredItems) {
			return false
		}
		for i := range a.UncoveredItems {
			sa, sb := a.UncoveredItems[i], b.UncoveredItems[i]
			if math.Abs(sa.Xe-sb.Xe) > pstol || math.Abs(sa.Ys-sb.Ys) > pstol || math.Abs(sa.Ye-sb.Ye) > pstol {
				return false
			}
		}
		return true
	}
	hash = func(n *Node) uint64 {
		h := uint64(14695981039346656037)
		mix := func(v float64) {
			bits := math.Float64bits(v)
			h ^= bits
			h *= 1099511628211
		}
		mix(float64(n.BinTypeID))
		for _, seg := range n.UncoveredItems {
			mix(seg.Xe)
			mix(seg.Ys)
			mix(seg.Ye)
		}
		return h
	}
	return equal, hash
}
