// Package box implements the 3D branching scheme: axis-aligned boxes
// packed into a box bin, tracked via three linked staircase projections
// (x-strip, y-frontier, z-frontier), generalizing the rectangle package's
// 2D skyline to a third dimension.
package box

import (
	"math"

	"github.com/piwi3910/packingsolver/internal/model"
)

const pstol = 1e-6

// Rect is one axis-aligned rectangle of a projection-plane tiling.
type Rect struct {
	ItemTypeID     int
	Xs, Ys, Xe, Ye float64
}

// Node is a partial 3D placement: the three linked uncovered-rectangle
// tilings plus the usual accumulators.
type Node struct {
	Parent *Node
	ID     int

	NumberOfItems int
	ItemCopies    []int
	NumberOfBins  int
	BinTypeID     int

	XUncovered []Rect // x-strip direction tiling
	YUncovered []Rect // projection onto x-z plane at the y-frontier
	ZUncovered []Rect // projection onto x-y plane at the z-frontier

	ItemVolume, CurrentVolume float64
	Waste, Profit             float64
	XMax, YMax, ZMax          float64
	Weight                    float64

	LastInsertion Insertion
}

// Insertion places a box at (xs,ys,zs) under one of the six axis-aligned
// rotations allowed by the item type's rotation mask.
type Insertion struct {
	ItemTypeID int
	Rotation   model.Rotations
	Xs, Ys, Zs float64
	NewBin     bool
}

// Parameters tunes the scheme's behaviour.
type Parameters struct {
	// Orientation selects which real axis plays the strip-growth ("x")
	// role: 0 = X, 1 = Y, 2 = Z. Trying all three and keeping the best
	// solution realizes the "rotate through two Instance views" source
	// pattern cheaply, without duplicating the Instance.
	Orientation int
}

// DefaultParameters returns the canonical (x-strip) orientation.
func DefaultParameters() Parameters { return Parameters{Orientation: 0} }

// Scheme implements the 3D branching scheme.
type Scheme struct {
	Instance   *model.Instance
	Parameters Parameters

	predecessors *dominanceTable
	nextNodeID   int
}

// New builds a Scheme over inst, precomputing predecessor dominance.
func New(inst *model.Instance, params Parameters) *Scheme {
	return &Scheme{Instance: inst, Parameters: params, predecessors: buildDominanceTable(inst)}
}

func (s *Scheme) allocNode() int { s.nextNodeID++; return s.nextNodeID }

// permute3 maps real-space (x,y,z) into scheme-space (a,b,c) for the given
// orientation, so the strip-growth axis is always scheme-space "a".
func permute3(orientation int, x, y, z float64) (a, b, c float64) {
	switch orientation {
	case 1:
		return y, z, x
	case 2:
		return z, x, y
	default:
		return x, y, z
	}
}

// unpermute3 is permute3's inverse: scheme-space (a,b,c) back to real (x,y,z).
func unpermute3(orientation int, a, b, c float64) (x, y, z float64) {
	switch orientation {
	case 1:
		return c, a, b
	case 2:
		return b, c, a
	default:
		return a, b, c
	}
}

// binDims returns bt's dimensions in scheme space.
func (s *Scheme) binDims(bt model.BinType) (x, y, z float64) {
	return permute3(s.Parameters.Orientation, bt.X, bt.Y, bt.Z)
}

// Root opens the first bin with each projection tiling a single rectangle
// spanning the bin's face.
func (s *Scheme) Root() *Node {
	n := &Node{ID: s.allocNode(), ItemCopies: make([]int, len(s.Instance.ItemTypes))}
	if len(s.Instance.BinTypes) > 0 {
		n.BinTypeID = s.Instance.BinTypeIDs[0]
		n.NumberOfBins = 1
		bt := s.Instance.BinTypes[n.BinTypeID]
		bx, by, bz := s.binDims(bt)
		n.XUncovered = []Rect{{ItemTypeID: -1, Xs: 0, Ys: 0, Xe: 0, Ye: by}}
		n.YUncovered = []Rect{{ItemTypeID: -1, Xs: 0, Ys: 0, Xe: bx, Ye: 0}}
		n.ZUncovered = []Rect{{ItemTypeID: -1, Xs: 0, Ys: 0, Xe: bx, Ye: by}}
		_ = bz
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

var allRotations = []model.Rotations{
	model.RotationNone, model.RotationXY, model.RotationXZ,
	model.RotationYZ, model.RotationXYZ1, model.RotationXYZ2,
}

func dims(t model.ItemType, rot model.Rotations) (w, h, z float64) {
	switch rot {
	case model.RotationXY:
		return t.H, t.W, t.Z
	case model.RotationXZ:
		return t.Z, t.H, t.W
	case model.RotationYZ:
		return t.W, t.Z, t.H
	case model.RotationXYZ1:
		return t.H, t.Z, t.W
	case model.RotationXYZ2:
		return t.Z, t.W, t.H
	default:
		return t.W, t.H, t.Z
	}
}

// Insertions enumerates, for every remaining item type and allowed
// rotation, every (y-uncovered, z-uncovered) anchor pair that gives the box
// contact on both projections.
func (s *Scheme) Insertions(n *Node) []Insertion {
	var out []Insertion
	if len(s.Instance.BinTypes) == 0 {
		return out
	}
	bt := s.Instance.BinTypes[n.BinTypeID]
	bx, by, bz := s.binDims(bt)
	skippedByDominance := s.predecessors.skipSet(n, s.Instance)
	for ti, t := range s.Instance.ItemTypes {
		if skippedByDominance[ti] {
			continue
		}
		if remainingCopies(s.Instance, n, ti) <= 0 {
			continue
		}
		if n.Weight+t.Weight > bt.MaximumWeight*(1+pstol) && bt.MaximumWeight > 0 {
			continue
		}
		for _, rot := range allRotations {
			if !t.Rotations.Allows(rot) {
				continue
			}
			rw, rh, rz := dims(t, rot)
			w, h, z := permute3(s.Parameters.Orientation, rw, rh, rz)
			for _, yRect := range n.YUncovered {
				for _, zRect := range n.ZUncovered {
					ys, zs := yRect.Ys, zRect.Ys
					if ye, ze := ys+h, zs+z; ye > by+pstol || ze > bz+pstol {
						continue
					}
					xs := slideX(n.XUncovered, ys, ys+h, zs, zs+z)
					if xs+w > bx+pstol {
						continue
					}
					rx, ry, _ := unpermute3(s.Parameters.Orientation, xs, ys, zs)
					rwReal, rhReal, _ := unpermute3(s.Parameters.Orientation, w, h, z)
					if bt.AnyDefectIntersects(rx, ry, rx+rwReal, ry+rhReal) {
						continue
					}
					out = append(out, Insertion{ItemTypeID: ti, Rotation: rot, Xs: xs, Ys: ys, Zs: zs})
				}
			}
		}
	}
	if len(out) == 0 {
		out = append(out, Insertion{NewBin: true})
	}
	return out
}

// slideX returns the smallest x such that a box spanning [ys,ye) clears
// every x-uncovered rectangle overlapping that y-range. Only the y-range is
// compared: zs and ze are not consulted, so a rectangle that overlaps in y
// pushes the box right whatever its z-range.
func slideX(xUncovered []Rect, ys, ye, zs, ze float64) float64 {
	var x float64
	for _, r := range xUncovered {
		if r.Ys >= ye || r.Ye <= ys {
			continue
		}
		if r.Xe > x {
			x = r.Xe
		}
	}
	_ = zs
	_ = ze
	return x
}

// Child computes the successor node and restores all three projections to
// a rectangle partition covering the placed box's footprint.
func (s *Scheme) Child(n *Node, ins Insertion) *Node {
	if ins.NewBin {
		return s.childNewBin(n)
	}
	t := s.Instance.ItemTypes[ins.ItemTypeID]
	rw, rh, rz := dims(t, ins.Rotation)
	w, h, z := permute3(s.Parameters.Orientation, rw, rh, rz)
	xe, ye, ze := ins.Xs+w, ins.Ys+h, ins.Zs+z

	c := &Node{
		Parent:        n,
		ID:            s.allocNode(),
		NumberOfItems: n.NumberOfItems + 1,
		ItemCopies:    append([]int(nil), n.ItemCopies...),
		NumberOfBins:  n.NumberOfBins,
		BinTypeID:     n.BinTypeID,
		ItemVolume:    n.ItemVolume + t.Volume(),
		Profit:        n.Profit + t.Profit,
		Weight:        n.Weight + t.Weight,
		LastInsertion: ins,
	}
	c.ItemCopies[ins.ItemTypeID]++

	c.XUncovered = spliceRects(n.XUncovered, Rect{ItemTypeID: ins.ItemTypeID, Xs: ins.Ys, Ys: ins.Zs, Xe: xe, Ye: ye})
	c.YUncovered = spliceRects(n.YUncovered, Rect{ItemTypeID: ins.ItemTypeID, Xs: ins.Xs, Ys: ins.Zs, Xe: xe, Ye: ye})
	c.ZUncovered = spliceRects(n.ZUncovered, Rect{ItemTypeID: ins.ItemTypeID, Xs: ins.Xs, Ys: ins.Ys, Xe: xe, Ye: ye})

	c.XMax, c.YMax, c.ZMax = n.XMax, n.YMax, n.ZMax
	if xe > c.XMax {
		c.XMax = xe
	}
	if ye > c.YMax {
		c.YMax = ye
	}
	if ze > c.ZMax {
		c.ZMax = ze
	}
	c.CurrentVolume = c.XMax * c.YMax * c.ZMax
	c.Waste = c.CurrentVolume - c.ItemVolume
	if c.Waste < -pstol {
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
	bx, by, _ := s.binDims(bt)
	return &Node{
		Parent:        n,
		ID:            s.allocNode(),
		NumberOfItems: n.NumberOfItems,
		ItemCopies:    append([]int(nil), n.ItemCopies...),
		NumberOfBins:  n.NumberOfBins + 1,
		BinTypeID:     binTypeID,
		ItemVolume:    n.ItemVolume,
		Profit:        n.Profit,
		XUncovered:    []Rect{{ItemTypeID: -1, Xs: 0, Ys: 0, Xe: 0, Ye: by}},
		YUncovered:    []Rect{{ItemTypeID: -1, Xs: 0, Ys: 0, Xe: bx, Ye: 0}},
		ZUncovered:    []Rect{{ItemTypeID: -1, Xs: 0, Ys: 0, Xe: bx, Ye: by}},
		LastInsertion: Insertion{NewBin: true},
	}
}

// spliceRects clips every existing rectangle against placed's footprint,
// emitting up to four non-overlapping survivors per clipped rectangle plus
// placed itself, restoring a rectangle partition of the plane.
func spliceRects(rects []Rect, placed Rect) []Rect {
	var out []Rect
	for _, r := range rects {
		if r.Xe <= placed.Xs || r.Xs >= placed.Xe || r.Ye <= placed.Ys || r.Ys >= placed.Ye {
			out = append(out, r)
			continue
		}
		if r.Ys < placed.Ys {
			out = append(out, Rect{ItemTypeID: r.ItemTypeID, Xs: r.Xs, Ys: r.Ys, Xe: r.Xe, Ye: placed.Ys})
		}
		if r.Ye > placed.Ye {
			out = append(out, Rect{ItemTypeID: r.ItemTypeID, Xs: r.Xs, Ys: placed.Ye, Xe: r.Xe, Ye: r.Ye})
		}
		ys, ye := math.Max(r.Ys, placed.Ys), math.Min(r.Ye, placed.Ye)
		if r.Xs < placed.Xs {
			out = append(out, Rect{ItemTypeID: r.ItemTypeID, Xs: r.Xs, Ys: ys, Xe: placed.Xs, Ye: ye})
		}
		if r.Xe > placed.Xe {
			out = append(out, Rect{ItemTypeID: r.ItemTypeID, Xs: placed.Xe, Ys: ys, Xe: r.Xe, Ye: ye})
		}
	}
	out = append(out, placed)
	return out
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

// Better/Bound mirror the rectangle scheme's table, substituting volume for
// area.
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
	binVolume := s.Instance.BinTypes[n1.BinTypeID].Volume()
	if binVolume <= 0 {
		return false
	}
	remaining := s.Instance.ItemVolume - (n1.ItemVolume + n1.Waste)
	if remaining <= 0 {
		return n1.NumberOfBins >= n2.NumberOfBins
	}
	extra := int(math.Ceil(remaining / binVolume))
	return n1.NumberOfBins+extra >= n2.NumberOfBins
}

// ToSolution materializes the placed boxes along the chain to n.
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
		rx, ry, rz := unpermute3(s.Parameters.Orientation, ins.Xs, ins.Ys, ins.Zs)
		if err := b.AddItem(binPos, ins.ItemTypeID, rx, ry, rz, ins.Rotation); err != nil {
			return nil, err
		}
	}
	sol := b.Solution()
	_, _, zMax := unpermute3(s.Parameters.Orientation, n.XMax, n.YMax, n.ZMax)
	if math.Abs(sol.ZExtent-zMax) > 1e-3 && zMax > 0 {
		return nil, model.InfeasibleError("to_solution: z-extent %.6f disagrees with tracked extent %.6f", sol.ZExtent, zMax)
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

// NodeHasher keys equivalence on the bin type and the three uncovered
// tilings only, per the node_hasher contract (geometric frontier only).
func (s *Scheme) NodeHasher() (equal func(a, b *Node) bool, hash func(n *Node) uint64) {
	equal = func(a, b *Node) bool {
		return a.BinTypeID == b.BinTypeID &&
			rectsEqual(a.XUncovered, b.XUncovered) &&
			rectsEqual(a.YUncovered, b.YUncovered) &&
			rectsEqual(a.ZUncovered, b.ZUncovered)
	}
	hash = func(n *Node) uint64 {
		h := uint64(14695981039346656037)
		mix := func(v float64) {
			h ^= math.Float64bits(v)
			h *= 1099511628211
		}
		mix(float64(n.BinTypeID))
		for _, list := range [][]Rect{n.XUncovered, n.YUncovered, n.ZUncovered} {
			for _, r := range list {
				mix(r.Xs)
				mix(r.Ys)
				mix(r.Xe)
				mix(r.Ye)
			}
		}
		return h
	}
	return equal, hash
}

func rectsEqual(a, b []Rect) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].Xs-b[i].Xs) > pstol || math.Abs(a[i].Ys-b[i].Ys) > pstol ||
			math.Abs(a[i].Xe-b[i].Xe) > pstol || math.Abs(a[i].Ye-b[i].Ye) > pstol {
			return false
		}
	}
	return true
}
