// Package rectangleguillotine implements the staged guillotine-cut
// branching scheme: rectangles placed via nested 1-cut/2-cut/3-cut stages,
// with trim, minimum-waste, and maximum-distance rules enforced on the
// cursor as it advances.
package rectangleguillotine

import (
	"math"

	"github.com/piwi3910/packingsolver/internal/model"
)

const pstol = 1e-6

// Df tags an insertion with the frontier depth it operates at.
type Df int

const (
	DfNewBinHorizontal Df = -2
	DfNewBinVertical   Df = -1
	DfFirstStage       Df = 0
	DfSecondStage      Df = 1
	DfThirdStage       Df = 2
)

// Parameters tunes cut-pattern rules.
type Parameters struct {
	NumberOfStages       int // 2 or 3
	CutThickness         float64
	MinimumWasteLength   float64
	MinimumDistance1Cuts float64
	MinimumDistance2Cuts float64
	MaximumDistance1Cuts float64
	MaximumNumber2Cuts   int
	CutThroughDefects    bool
}

// DefaultParameters returns a 3-staged pattern with zero-thickness cuts.
func DefaultParameters() Parameters {
	return Parameters{NumberOfStages: 3, MaximumNumber2Cuts: math.MaxInt32}
}

// Insertion places one item (or, for the Roadef2018 variant, two items of
// equal height side by side in one third-stage insertion) at frontier depth
// Df. A pair stacked in the same 3-cut column is not offered.
type Insertion struct {
	Df            Df
	ItemTypeID    int
	ItemTypeID2   int // -1 unless this is the two-item Roadef2018 variant
	Rotated       bool
	DefectAdvance bool
}

// Node is the branching scheme's cursor state: which stage of which bin the
// next insertion extends.
type Node struct {
	Parent *Node
	ID     int

	NumberOfItems int
	ItemCopies    []int
	NumberOfBins  int
	BinTypeID     int

	FirstStageOrientation int

	X1Prev, X1Curr float64
	Y2Prev, Y2Curr float64
	X3Curr         float64
	X1Max, Y2Max   float64

	SubPlate1CurrNumberOf2Cuts int

	ItemArea, CurrentArea float64
	Waste, Profit         float64

	LastInsertion Insertion
}

// Scheme implements the staged guillotine-cut branching scheme.
type Scheme struct {
	Instance   *model.Instance
	Parameters Parameters

	nextNodeID int
}

// New builds a Scheme over inst.
func New(inst *model.Instance, params Parameters) *Scheme {
	return &Scheme{Instance: inst, Parameters: params}
}

func (s *Scheme) allocNode() int { s.nextNodeID++; return s.nextNodeID }

// Root opens the first bin with an empty cursor.
func (s *Scheme) Root() *Node {
	n := &Node{ID: s.allocNode(), ItemCopies: make([]int, len(s.Instance.ItemTypes))}
	if len(s.Instance.BinTypes) > 0 {
		n.BinTypeID = s.Instance.BinTypeIDs[0]
		n.NumberOfBins = 1
		bt := s.Instance.BinTypes[n.BinTypeID]
		n.X1Prev, n.Y2Prev = bt.LeftTrim.Length, bt.BottomTrim.Length
	}
	return n
}

// binExtent returns bt's usable width/height for this cursor, swapping
// axes when the bin was opened with the rotated (vertical) orientation.
func binExtent(bt model.BinType, orientation int) (x, y float64) {
	if orientation == 1 {
		return bt.Y, bt.X
	}
	return bt.X, bt.Y
}

// binTrim returns bt's trims in cursor space for the given orientation,
// swapping left/right with bottom/top when rotated.
func binTrim(bt model.BinType, orientation int) (left, right, bottom, top model.Trim) {
	if orientation == 1 {
		return bt.BottomTrim, bt.TopTrim, bt.LeftTrim, bt.RightTrim
	}
	return bt.LeftTrim, bt.RightTrim, bt.BottomTrim, bt.TopTrim
}

func remainingCopies(inst *model.Instance, n *Node, itemTypeID int) int {
	t := inst.ItemTypes[itemTypeID]
	if t.Copies == -1 {
		return math.MaxInt32
	}
	return t.Copies - n.ItemCopies[itemTypeID]
}

// Insertions enumerates the feasible single-item, two-item and
// defect-advance insertions at the current cursor, then strips out any
// candidate whose Front is dominated by another candidate's for the same
// item pair and rotation.
func (s *Scheme) Insertions(n *Node) []Insertion {
	var out []Insertion
	if len(s.Instance.BinTypes) == 0 {
		return out
	}
	bt := s.Instance.BinTypes[n.BinTypeID]
	stages := []Df{DfThirdStage, DfSecondStage, DfFirstStage}
	if s.Parameters.NumberOfStages == 2 {
		stages = []Df{DfSecondStage, DfFirstStage}
	}
	for ti, t := range s.Instance.ItemTypes {
		if remainingCopies(s.Instance, n, ti) <= 0 {
			continue
		}
		for _, df := range stages {
			if s.fits(n, bt, t, df, false) {
				out = append(out, Insertion{Df: df, ItemTypeID: ti, ItemTypeID2: -1})
			}
			if !t.Oriented && t.Rotations.Allows(model.RotationXY) && s.fits(n, bt, t, df, true) {
				out = append(out, Insertion{Df: df, ItemTypeID: ti, ItemTypeID2: -1, Rotated: true})
			}
		}
	}
	if s.Parameters.NumberOfStages != 2 {
		out = append(out, s.twoItemInsertions(n, bt)...)
	}
	out = append(out, s.defectAdvanceInsertions(n, bt)...)
	out = s.filterDominatedInsertions(n, out)
	if len(out) == 0 {
		out = append(out, Insertion{Df: DfNewBinHorizontal, ItemTypeID: -1, ItemTypeID2: -1})
		if bt.X != bt.Y {
			out = append(out, Insertion{Df: DfNewBinVertical, ItemTypeID: -1, ItemTypeID2: -1})
		}
	}
	return out
}

// twoItemInsertions enumerates the Roadef2018 two-item variant: a pair of
// item types sharing the same height, placed side by side as a single
// atomic third-stage insertion within the current shelf.
func (s *Scheme) twoItemInsertions(n *Node, bt model.BinType) []Insertion {
	var out []Insertion
	for i, ti := range s.Instance.ItemTypes {
		if remainingCopies(s.Instance, n, i) <= 0 {
			continue
		}
		for j, tj := range s.Instance.ItemTypes {
			need := 1
			if i == j {
				need = 2
			}
			if remainingCopies(s.Instance, n, j) < need {
				continue
			}
			if i > j {
				continue // unordered pair, avoid enumerating both orders
			}
			if math.Abs(ti.H-tj.H) > pstol {
				continue
			}
			if s.fitsTwo(n, bt, ti, tj) {
				out = append(out, Insertion{Df: DfThirdStage, ItemTypeID: i, ItemTypeID2: j})
			}
		}
	}
	return out
}

func (s *Scheme) fitsTwo(n *Node, bt model.BinType, t1, t2 model.ItemType) bool {
	x1prev, y2prev := s.cursorPrev(n, DfThirdStage)
	ok, x1, _ := s.advanceCursor(n, x1prev, y2prev, t1.W+t2.W, t1.H, DfThirdStage, bt)
	if !ok {
		return false
	}
	_, right, _, top := binTrim(bt, n.FirstStageOrientation)
	bx, by := binExtent(bt, n.FirstStageOrientation)
	if x1 > bx-right.Length+pstol {
		return false
	}
	if y2prev+t1.H > by-top.Length+pstol {
		return false
	}
	if bt.AnyDefectIntersects(x1prev, y2prev, x1prev+t1.W, y2prev+t1.H) {
		return false
	}
	if bt.AnyDefectIntersects(x1prev+t1.W, y2prev, x1prev+t1.W+t2.W, y2prev+t2.H) {
		return false
	}
	return true
}

// defectAdvanceInsertions offers a degenerate, item-less insertion that
// merely advances the first-stage cursor past a defect blocking every item
// from starting a new strip there, when cutting through it is disallowed.
func (s *Scheme) defectAdvanceInsertions(n *Node, bt model.BinType) []Insertion {
	if s.Parameters.CutThroughDefects || len(bt.Defects) == 0 {
		return nil
	}
	bx, _ := binExtent(bt, n.FirstStageOrientation)
	_, right, _, _ := binTrim(bt, n.FirstStageOrientation)
	for _, d := range bt.Defects {
		if d.X+d.LX > n.X1Curr+pstol && d.X < bx-right.Length {
			return []Insertion{{Df: DfFirstStage, ItemTypeID: -1, ItemTypeID2: -1, DefectAdvance: true}}
		}
	}
	return nil
}

// filterDominatedInsertions removes any candidate whose resulting Front is
// dominated by another candidate targeting the same item pair/orientation:
// an equal-or-better cursor on every coordinate, strictly better on one.
func (s *Scheme) filterDominatedInsertions(n *Node, candidates []Insertion) []Insertion {
	type frontKey struct {
		item, item2 int
		rotated     bool
	}
	groups := map[frontKey][]int{}
	for i, ins := range candidates {
		if ins.Df < 0 || ins.DefectAdvance {
			continue
		}
		k := frontKey{ins.ItemTypeID, ins.ItemTypeID2, ins.Rotated}
		groups[k] = append(groups[k], i)
	}
	if len(groups) == 0 {
		return candidates
	}
	children := make([]*Node, len(candidates))
	dominated := make([]bool, len(candidates))
	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		for _, i := range idxs {
			if children[i] == nil {
				children[i] = s.Child(n, candidates[i])
			}
		}
		for _, i := range idxs {
			for _, j := range idxs {
				if i == j || dominated[i] {
					continue
				}
				if frontDominates(children[j], children[i]) {
					dominated[i] = true
					break
				}
			}
		}
	}
	out := make([]Insertion, 0, len(candidates))
	for i, ins := range candidates {
		if !dominated[i] {
			out = append(out, ins)
		}
	}
	return out
}

// frontDominates reports whether a's Front is no further advanced than b's
// on every cursor coordinate and strictly less advanced on at least one.
func frontDominates(a, b *Node) bool {
	if a.FirstStageOrientation != b.FirstStageOrientation {
		return false
	}
	le := a.X1Prev <= b.X1Prev+pstol && a.X3Curr <= b.X3Curr+pstol && a.X1Curr <= b.X1Curr+pstol &&
		a.Y2Prev <= b.Y2Prev+pstol && a.Y2Curr <= b.Y2Curr+pstol
	if !le {
		return false
	}
	return a.X1Prev < b.X1Prev-pstol || a.X3Curr < b.X3Curr-pstol || a.X1Curr < b.X1Curr-pstol ||
		a.Y2Prev < b.Y2Prev-pstol || a.Y2Curr < b.Y2Curr-pstol
}

// fits reports whether an item of type t can extend the cursor at depth df
// without overflowing the bin, after applying the cursor-update rules.
func (s *Scheme) fits(n *Node, bt model.BinType, t model.ItemType, df Df, rotated bool) bool {
	w, h := t.W, t.H
	if rotated {
		w, h = h, w
	}
	x1prev, y2prev := s.cursorPrev(n, df)
	ok, x1, y2 := s.advanceCursor(n, x1prev, y2prev, w, h, df, bt)
	if !ok {
		return false
	}
	bx, by := binExtent(bt, n.FirstStageOrientation)
	_, right, _, top := binTrim(bt, n.FirstStageOrientation)
	rightLimit, topLimit := bx-right.Length, by-top.Length
	// A soft trim tolerates a sliver of overrun (the last cut absorbing it
	// as waste); a hard trim may never be cut into at all.
	rightTol, topTol := pstol, pstol
	if right.Kind == model.TrimHard {
		rightTol = 0
	}
	if top.Kind == model.TrimHard {
		topTol = 0
	}
	if x1 > rightLimit+rightTol {
		return false
	}
	if y2 > topLimit+topTol {
		return false
	}
	if bt.AnyDefectIntersects(x1prev, y2prev, x1prev+w, y2prev+h) {
		return false
	}
	return true
}

// cursorPrev implements the from-df table: where the previous cut line
// sits, which the new stage's distance rules are measured from.
func (s *Scheme) cursorPrev(n *Node, df Df) (x1Prev, y2Prev float64) {
	bt := s.Instance.BinTypes[n.BinTypeID]
	left, _, bottom, _ := binTrim(bt, n.FirstStageOrientation)
	switch df {
	case DfNewBinHorizontal, DfNewBinVertical:
		return left.Length, bottom.Length
	case DfFirstStage:
		return n.X1Curr + s.Parameters.CutThickness, bottom.Length
	case DfSecondStage:
		return n.X1Prev, n.Y2Curr + s.Parameters.CutThickness
	default: // DfThirdStage
		return n.X1Curr + s.Parameters.CutThickness, n.Y2Prev
	}
}

// advanceCursor applies the minimum-waste / minimum-distance / maximum-
// distance / maximum-2-cuts-count / defect-push-past rules in order,
// returning the new x1/y2 cut positions. ok is false when a rule makes df
// infeasible outright rather than merely shifting the cursor.
func (s *Scheme) advanceCursor(n *Node, x1Prev, y2Prev, w, h float64, df Df, bt model.BinType) (ok bool, x1, y2 float64) {
	switch df {
	case DfFirstStage, DfNewBinHorizontal, DfNewBinVertical:
		x1 = x1Prev + w
		y2 = y2Prev + h
	case DfSecondStage:
		x1 = x1Prev
		y2 = y2Prev + h
	default: // DfThirdStage
		x1 = x1Prev + w
		y2 = y2Prev
	}
	if s.Parameters.NumberOfStages == 2 && df == DfFirstStage {
		// A 2-staged pattern has exactly one first-stage column per bin,
		// spanning the full usable width: no third stage exists to make
		// use of any width left over from a narrower item.
		bx, _ := binExtent(bt, n.FirstStageOrientation)
		_, right, _, _ := binTrim(bt, n.FirstStageOrientation)
		if full := bx - right.Length; full > x1 {
			x1 = full
		}
	}
	if minW := s.Parameters.MinimumWasteLength; minW > 0 {
		if d := x1 - x1Prev; d > 0 && d < minW {
			x1 = x1Prev + minW
		}
		if d := y2 - y2Prev; d > 0 && d < minW {
			y2 = y2Prev + minW
		}
	}
	if md := s.Parameters.MinimumDistance1Cuts; md > 0 && x1-x1Prev < md {
		x1 = x1Prev + md
	}
	if md := s.Parameters.MinimumDistance2Cuts; md > 0 && y2-y2Prev < md {
		y2 = y2Prev + md
	}
	if df == DfFirstStage || df == DfNewBinHorizontal || df == DfNewBinVertical {
		if md := s.Parameters.MaximumDistance1Cuts; md > 0 && x1-x1Prev > md+pstol {
			return false, x1, y2
		}
	}
	if df == DfSecondStage && s.Parameters.MaximumNumber2Cuts > 0 && n.SubPlate1CurrNumberOf2Cuts >= s.Parameters.MaximumNumber2Cuts {
		_, by := binExtent(bt, n.FirstStageOrientation)
		_, _, _, top := binTrim(bt, n.FirstStageOrientation)
		if math.Abs(y2-(by-top.Length)) > pstol {
			return false, x1, y2
		}
	}
	if !s.Parameters.CutThroughDefects {
		switch df {
		case DfFirstStage, DfNewBinHorizontal, DfNewBinVertical, DfThirdStage:
			// A 1-cut or 3-cut runs the bin's full height, so any defect
			// under the line anywhere along it must push the cut forward.
			x1 = pushCutPastDefects(x1, true, bt.Defects)
		}
		if df != DfThirdStage {
			// A 2-cut only spans the current column's width, so only
			// defects within that column can force it forward.
			colLo, colHi := x1Prev, x1
			if df == DfSecondStage {
				colLo, colHi = n.X1Prev, n.X1Curr
			}
			y2 = pushCutPastDefectsInRange(y2, bt.Defects, colLo, colHi)
		}
	}
	return true, x1, y2
}

// pushCutPastDefects advances a guillotine cut line past any defect whose
// span straddles it, so the physical blade never has to cut through one.
func pushCutPastDefects(cut float64, vertical bool, defects []model.Defect) float64 {
	for changed := true; changed; {
		changed = false
		for _, d := range defects {
			lo, hi := d.X, d.X+d.LX
			if !vertical {
				lo, hi = d.Y, d.Y+d.LY
			}
			if lo < cut-pstol && hi > cut+pstol {
				cut = hi
				changed = true
			}
		}
	}
	return cut
}

// pushCutPastDefectsInRange is pushCutPastDefects restricted to the 2-cut
// case: only a defect whose x-span falls within [rangeLo,rangeHi) can force
// the horizontal cut line forward.
func pushCutPastDefectsInRange(cut float64, defects []model.Defect, rangeLo, rangeHi float64) float64 {
	for changed := true; changed; {
		changed = false
		for _, d := range defects {
			if d.X+d.LX <= rangeLo+pstol || d.X >= rangeHi-pstol {
				continue
			}
			if d.Y < cut-pstol && d.Y+d.LY > cut+pstol {
				cut = d.Y + d.LY
				changed = true
			}
		}
	}
	return cut
}

// Child computes the successor cursor state after applying ins.
func (s *Scheme) Child(n *Node, ins Insertion) *Node {
	if ins.Df == DfNewBinHorizontal || ins.Df == DfNewBinVertical {
		return s.childNewBin(n, ins)
	}
	bt := s.Instance.BinTypes[n.BinTypeID]

	if ins.DefectAdvance {
		bx, _ := binExtent(bt, n.FirstStageOrientation)
		_, right, _, _ := binTrim(bt, n.FirstStageOrientation)
		x1 := bx - right.Length
		for _, d := range bt.Defects {
			if far := d.X + d.LX; far > n.X1Curr+pstol && far < x1 {
				x1 = far
			}
		}
		c := &Node{
			Parent:                     n,
			ID:                         s.allocNode(),
			NumberOfItems:              n.NumberOfItems,
			ItemCopies:                 append([]int(nil), n.ItemCopies...),
			NumberOfBins:               n.NumberOfBins,
			BinTypeID:                  n.BinTypeID,
			FirstStageOrientation:      n.FirstStageOrientation,
			X1Prev:                     n.X1Curr + s.Parameters.CutThickness,
			Y2Prev:                     n.Y2Prev,
			X1Curr:                     x1,
			Y2Curr:                     n.Y2Curr,
			X3Curr:                     x1,
			SubPlate1CurrNumberOf2Cuts: 0,
			ItemArea:                   n.ItemArea,
			Profit:                     n.Profit,
			LastInsertion:              ins,
		}
		c.X1Max, c.Y2Max = n.X1Max, n.Y2Max
		if x1 > c.X1Max {
			c.X1Max = x1
		}
		c.CurrentArea = c.X1Max * c.Y2Max
		c.Waste = c.CurrentArea - c.ItemArea
		if c.Waste < -pstol {
			c.Waste = 0
		}
		return c
	}

	t := s.Instance.ItemTypes[ins.ItemTypeID]
	w, h := t.W, t.H
	if ins.Rotated {
		w, h = h, w
	}
	area, profit := t.Area(), t.Profit
	if ins.ItemTypeID2 >= 0 {
		t2 := s.Instance.ItemTypes[ins.ItemTypeID2]
		w += t2.W
		area += t2.Area()
		profit += t2.Profit
	}
	x1Prev, y2Prev := s.cursorPrev(n, ins.Df)
	_, x1, y2 := s.advanceCursor(n, x1Prev, y2Prev, w, h, ins.Df, bt)

	c := &Node{
		Parent:                n,
		ID:                    s.allocNode(),
		NumberOfItems:         n.NumberOfItems + 1,
		ItemCopies:            append([]int(nil), n.ItemCopies...),
		NumberOfBins:          n.NumberOfBins,
		BinTypeID:             n.BinTypeID,
		FirstStageOrientation: n.FirstStageOrientation,
		X1Prev:                x1Prev,
		Y2Prev:                y2Prev,
		X1Curr:                x1,
		Y2Curr:                y2,
		ItemArea:              n.ItemArea + area,
		Profit:                n.Profit + profit,
		LastInsertion:         ins,
	}
	if ins.ItemTypeID2 >= 0 {
		c.NumberOfItems++
	}
	c.ItemCopies[ins.ItemTypeID]++
	if ins.ItemTypeID2 >= 0 {
		c.ItemCopies[ins.ItemTypeID2]++
	}
	switch ins.Df {
	case DfFirstStage:
		c.X3Curr = x1
	case DfSecondStage:
		c.X3Curr = x1Prev
	default: // DfThirdStage
		c.X3Curr = x1
	}
	if ins.Df == DfSecondStage {
		c.SubPlate1CurrNumberOf2Cuts = n.SubPlate1CurrNumberOf2Cuts + 1
	} else {
		c.SubPlate1CurrNumberOf2Cuts = n.SubPlate1CurrNumberOf2Cuts
	}
	c.X1Max, c.Y2Max = n.X1Max, n.Y2Max
	if x1 > c.X1Max {
		c.X1Max = x1
	}
	if y2 > c.Y2Max {
		c.Y2Max = y2
	}
	c.CurrentArea = c.X1Max * c.Y2Max
	c.Waste = c.CurrentArea - c.ItemArea
	if c.Waste < -pstol {
		c.Waste = 0
	}
	return c
}

func (s *Scheme) childNewBin(n *Node, ins Insertion) *Node {
	pos := n.NumberOfBins
	if pos >= len(s.Instance.BinTypeIDs) {
		return nil
	}
	binTypeID := s.Instance.BinTypeIDs[pos]
	bt := s.Instance.BinTypes[binTypeID]
	orientation := 0
	if ins.Df == DfNewBinVertical {
		orientation = 1
	}
	left, _, bottom, _ := binTrim(bt, orientation)
	return &Node{
		Parent:                n,
		ID:                    s.allocNode(),
		NumberOfItems:         n.NumberOfItems,
		ItemCopies:            append([]int(nil), n.ItemCopies...),
		NumberOfBins:          n.NumberOfBins + 1,
		BinTypeID:             binTypeID,
		FirstStageOrientation: orientation,
		X1Prev:                left.Length,
		Y2Prev:                bottom.Length,
		ItemArea:              n.ItemArea,
		Profit:                n.Profit,
		LastInsertion:         ins,
	}
}

// Better ranks BinPacking and VariableSizedBinPacking by leaf status then
// fewer bins, Knapsack by higher profit, and every other objective by
// higher profit then lower waste. Bound prunes only under BinPacking and
// VariableSizedBinPacking.
func (s *Scheme) Better(n1, n2 *Node) bool {
	if n1 == nil {
		return false
	}
	if n2 == nil {
		return true
	}
	switch s.Instance.Objective {
	case model.BinPacking, model.VariableSizedBinPacking:
		l1, l2 := s.Leaf(n1), s.Leaf(n2)
		if l1 != l2 {
			return l1
		}
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
	binArea := s.Instance.BinTypes[n1.BinTypeID].Area()
	if binArea <= 0 {
		return false
	}
	remaining := s.Instance.ItemArea - (n1.ItemArea + n1.Waste)
	if remaining <= 0 {
		return n1.NumberOfBins >= n2.NumberOfBins
	}
	extra := int(math.Ceil(remaining / binArea))
	return n1.NumberOfBins+extra >= n2.NumberOfBins
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

// ToSolution materializes the cut tree and placed items along the chain to
// n.
func (s *Scheme) ToSolution(n *Node) (*model.Solution, error) {
	chain := nodeChain(n)
	b := model.NewSolutionBuilder(s.Instance)
	binPos := -1
	for _, step := range chain {
		if step.Parent == nil {
			binPos = b.AddBin(step.BinTypeID, step.FirstStageOrientation)
			continue
		}
		ins := step.LastInsertion
		if ins.Df == DfNewBinHorizontal || ins.Df == DfNewBinVertical {
			binPos = b.AddBin(step.BinTypeID, step.FirstStageOrientation)
			continue
		}
		b.AddNode(int(ins.Df), step.X1Curr)
		if ins.DefectAdvance {
			continue
		}
		rot := model.RotationNone
		if ins.Rotated {
			rot = model.RotationXY
		}
		if err := b.AddItem(binPos, ins.ItemTypeID, step.X1Prev, step.Y2Prev, 0, rot); err != nil {
			return nil, err
		}
		b.SetLastNodeItem(ins.ItemTypeID)
		if ins.ItemTypeID2 >= 0 {
			t := s.Instance.ItemTypes[ins.ItemTypeID]
			w := t.W
			if ins.Rotated {
				w = t.H
			}
			if err := b.AddItem(binPos, ins.ItemTypeID2, step.X1Prev+w, step.Y2Prev, 0, rot); err != nil {
				return nil, err
			}
		}
	}
	sol := b.Solution()
	if math.Abs(sol.XExtent-n.X1Max) > 1e-3 && n.X1Max > 0 {
		return nil, model.InfeasibleError("to_solution: x-extent %.6f disagrees with tracked extent %.6f", sol.XExtent, n.X1Max)
	}
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

// NodeHasher keys equivalence on the Front tuple (i, o, x1_prev, x3_curr,
// x1_curr, y2_prev, y2_curr), per the dominance rule for the insertions
// list: two cursors with the same Front are interchangeable regardless of
// how they were reached.
func (s *Scheme) NodeHasher() (equal func(a, b *Node) bool, hash func(n *Node) uint64) {
	equal = func(a, b *Node) bool {
		return a.BinTypeID == b.BinTypeID &&
			a.FirstStageOrientation == b.FirstStageOrientation &&
			math.Abs(a.X1Prev-b.X1Prev) < pstol &&
			math.Abs(a.X3Curr-b.X3Curr) < pstol &&
			math.Abs(a.X1Curr-b.X1Curr) < pstol &&
			math.Abs(a.Y2Prev-b.Y2Prev) < pstol &&
			math.Abs(a.Y2Curr-b.Y2Curr) < pstol
	}
	hash = func(n *Node) uint64 {
		h := uint64(14695981039346656037)
		mix := func(v float64) {
			h ^= math.Float64bits(v)
			h *= 1099511628211
		}
		mix(float64(n.BinTypeID))
		mix(float64(n.FirstStageOrientation))
		mix(n.X1Prev)
		mix(n.X3Curr)
		mix(n.X1Curr)
		mix(n.Y2Prev)
		mix(n.Y2Curr)
		return h
	}
	return equal, hash
}
