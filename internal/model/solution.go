package model

import "sync"

// PlacedItem is one item placed during search: item type, bin position,
// rotation and coordinates. Z/StackID are only meaningful for 3D / stacked
// problems.
type PlacedItem struct {
	ItemTypeID int
	BinPos     int
	Rotation   Rotations
	X, Y, Z    float64
	StackID    int
}

// CutNode is one node of a rectangle-guillotine cut tree: `depth` is the
// cut stage (1, 2 or 3), `cutPosition` the coordinate along the stage's
// growth axis. Leaves additionally carry the item type placed there.
type CutNode struct {
	Depth       int
	CutPosition float64
	ItemTypeID  int // -1 if this node is not a leaf
}

// Bin is one opened bin position within a Solution.
type Bin struct {
	BinTypeID      int
	CutOrientation int // first-stage growth axis, for guillotine solutions

	Items []PlacedItem
	Cuts  []CutNode // rectangle-guillotine only

	// Derived, recomputed on every Add* call that touches this bin.
	X1, Y1, Z1 float64 // bounding-box extent used
	Waste      float64
	Weight     float64

	WeightedSum float64 // ∑ (x + w/2)·weight, for centroid/axle tracking
}

// Solution is a finished placement: a sequence of opened bins, each with its
// placed items (and, for guillotine problems, its cut tree). It is built
// append-only during search via SolutionBuilder and never mutated afterward.
type Solution struct {
	Instance *Instance

	Bins []Bin

	NumberOfItems int
	ItemArea      float64
	ItemVolume    float64
	CurrentArea   float64
	CurrentVolume float64
	Profit        float64

	XExtent, YExtent, ZExtent float64

	MiddleAxleOverweight float64
	RearAxleOverweight   float64
}

// Waste returns current area minus item area (2D) or the 3D equivalent.
func (s *Solution) Waste() float64 {
	if s.Instance != nil && anyBinIs3D(s.Instance) {
		return s.CurrentVolume - s.ItemVolume
	}
	return s.CurrentArea - s.ItemArea
}

func anyBinIs3D(inst *Instance) bool {
	for _, b := range inst.BinTypes {
		if b.Z > 0 {
			return true
		}
	}
	return false
}

// NumberOfBins returns the number of opened bins.
func (s *Solution) NumberOfBins() int { return len(s.Bins) }

// Leaf reports whether every item type's copies are fully packed.
func (s *Solution) Leaf(inst *Instance) bool {
	packed := make(map[int]int)
	for _, bin := range s.Bins {
		for _, it := range bin.Items {
			packed[it.ItemTypeID]++
		}
	}
	for _, t := range inst.ItemTypes {
		if t.Copies == -1 {
			continue
		}
		if packed[t.ID] < t.Copies {
			return false
		}
	}
	return true
}

// SolutionBuilder appends bins, items and cut-tree nodes to a Solution under
// construction, recomputing derived per-bin quantities as it goes.
type SolutionBuilder struct {
	sol *Solution
}

// NewSolutionBuilder returns a SolutionBuilder over a fresh, empty Solution
// for inst.
func NewSolutionBuilder(inst *Instance) *SolutionBuilder {
	return &SolutionBuilder{sol: &Solution{Instance: inst}}
}

// Solution returns the Solution built so far.
func (b *SolutionBuilder) Solution() *Solution { return b.sol }

// AddBin opens a new bin position of the given type and returns its index.
func (b *SolutionBuilder) AddBin(binTypeID, cutOrientation int) int {
	b.sol.Bins = append(b.sol.Bins, Bin{BinTypeID: binTypeID, CutOrientation: cutOrientation})
	return len(b.sol.Bins) - 1
}

// AddItem places an item (rectangle or box scheme) in the named bin
// position and updates the solution's derived totals.
func (b *SolutionBuilder) AddItem(binPos, itemTypeID int, x, y, z float64, rot Rotations) error {
	if binPos < 0 || binPos >= len(b.sol.Bins) {
		return InfeasibleError("add_item: bin position %d out of range", binPos)
	}
	t, ok := b.sol.Instance.ItemTypeByID(itemTypeID)
	if !ok {
		return InfeasibleError("add_item: unknown item type %d", itemTypeID)
	}
	bin := &b.sol.Bins[binPos]
	bin.Items = append(bin.Items, PlacedItem{ItemTypeID: itemTypeID, BinPos: binPos, Rotation: rot, X: x, Y: y, Z: z})

	w, h := t.W, t.H
	if rot.Allows(RotationXY) && rot != RotationNone {
		w, h = t.H, t.W
	}
	ex, ey := x+w, y+h
	if ex > bin.X1 {
		bin.X1 = ex
	}
	if ey > bin.Y1 {
		bin.Y1 = ey
	}
	if z+t.Z > bin.Z1 {
		bin.Z1 = z + t.Z
	}
	bin.Weight += t.Weight
	bin.WeightedSum += (x + w/2) * t.Weight

	// Per-bin waste follows Solution.Waste: volume-based when any bin is 3D.
	is3D := anyBinIs3D(b.sol.Instance)
	used, extent := 0.0, bin.X1*bin.Y1
	if is3D {
		extent *= bin.Z1
	}
	for _, pi := range bin.Items {
		pt, _ := b.sol.Instance.ItemTypeByID(pi.ItemTypeID)
		if is3D {
			used += pt.Volume()
		} else {
			used += pt.Area()
		}
	}
	bin.Waste = extent - used

	b.sol.NumberOfItems++
	b.sol.ItemArea += t.Area()
	b.sol.ItemVolume += t.Volume()
	b.recomputeExtent()
	return nil
}

// AddStack returns the number of bins opened so far as a stack id
// (box-stacks scheme only). It records no footprint and ignores its
// position arguments, so every stack in the same bin gets the same id, and
// it does not set PlacedItem.StackID.
func (b *SolutionBuilder) AddStack(binPos int, x0, x1, y0, y1 float64) int {
	_ = binPos
	_ = x0
	_ = x1
	_ = y0
	_ = y1
	return len(b.sol.Bins)
}

// AddNode appends a cut-tree node (rectangle-guillotine scheme only) to the
// most recently opened bin.
func (b *SolutionBuilder) AddNode(depth int, cutPosition float64) {
	if len(b.sol.Bins) == 0 {
		return
	}
	bin := &b.sol.Bins[len(b.sol.Bins)-1]
	bin.Cuts = append(bin.Cuts, CutNode{Depth: depth, CutPosition: cutPosition, ItemTypeID: -1})
}

// SetLastNodeItem attaches an item type to the most recently added cut-tree
// leaf (rectangle-guillotine scheme only).
func (b *SolutionBuilder) SetLastNodeItem(itemTypeID int) {
	if len(b.sol.Bins) == 0 {
		return
	}
	bin := &b.sol.Bins[len(b.sol.Bins)-1]
	if len(bin.Cuts) == 0 {
		return
	}
	bin.Cuts[len(bin.Cuts)-1].ItemTypeID = itemTypeID
}

func (b *SolutionBuilder) recomputeExtent() {
	var area, volume, x, y, z float64
	for _, bin := range b.sol.Bins {
		area += bin.X1 * bin.Y1
		if bin.Z1 > 0 {
			volume += bin.X1 * bin.Y1 * bin.Z1
		}
		if bin.X1 > x {
			x = bin.X1
		}
		if bin.Y1 > y {
			y = bin.Y1
		}
		if bin.Z1 > z {
			z = bin.Z1
		}
	}
	b.sol.CurrentArea = area
	b.sol.CurrentVolume = volume
	b.sol.XExtent, b.sol.YExtent, b.sol.ZExtent = x, y, z
	b.sol.Profit = b.computeProfit()
}

func (b *SolutionBuilder) computeProfit() float64 {
	var profit float64
	for _, bin := range b.sol.Bins {
		for _, it := range bin.Items {
			if t, ok := b.sol.Instance.ItemTypeByID(it.ItemTypeID); ok {
				profit += t.Profit
			}
		}
	}
	return profit
}

// Pool holds the single best complete solution seen so far, safe for
// concurrent writers across parallel IBS
// invocations. Its single write operation locks, compares under the
// instance's objective, installs the candidate if strictly better, and
// unlocks.
type Pool struct {
	mu        sync.Mutex
	instance  *Instance
	better    func(n1, n2 *Solution) bool
	best      *Solution
}

// NewPool returns an empty Pool that uses better to decide whether a
// candidate solution strictly improves on the incumbent.
func NewPool(inst *Instance, better func(n1, n2 *Solution) bool) *Pool {
	return &Pool{instance: inst, better: better}
}

// Add installs candidate as the new incumbent if it is strictly better (or
// if the pool is empty), and reports whether the incumbent changed.
func (p *Pool) Add(candidate *Solution) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.best == nil || p.better(candidate, p.best) {
		p.best = candidate
		return true
	}
	return false
}

// Best returns the current incumbent, or nil if none has been added yet.
func (p *Pool) Best() *Solution {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.best
}
