// Package model holds the read-only instance description (item types, bin
// types, defects, groups, objective) and the append-only solution builder
// shared by every branching scheme.
package model

import "github.com/google/uuid"

// Objective selects both the comparison and the prune predicate a branching
// scheme uses during search (see the ibs package).
type Objective int

const (
	Default Objective = iota
	BinPacking
	VariableSizedBinPacking
	BinPackingWithLeftovers
	OpenDimensionX
	OpenDimensionY
	OpenDimensionZ
	Knapsack
	SequentialOneDimensionalRectangleSubproblem
)

func (o Objective) String() string {
	switch o {
	case BinPacking:
		return "BinPacking"
	case VariableSizedBinPacking:
		return "VariableSizedBinPacking"
	case BinPackingWithLeftovers:
		return "BinPackingWithLeftovers"
	case OpenDimensionX:
		return "OpenDimensionX"
	case OpenDimensionY:
		return "OpenDimensionY"
	case OpenDimensionZ:
		return "OpenDimensionZ"
	case Knapsack:
		return "Knapsack"
	case SequentialOneDimensionalRectangleSubproblem:
		return "SequentialOneDimensionalRectangleSubproblem"
	default:
		return "Default"
	}
}

// UnloadingConstraint restricts how items of different groups may be removed
// from a finished bin.
type UnloadingConstraint int

const (
	UnloadingNone UnloadingConstraint = iota
	OnlyXMovements
	OnlyYMovements
	IncreasingX
	IncreasingY
)

// Rotations is a 6-bit mask over the axis-aligned orientations of a box.
// Bit 0 is always the canonical orientation; rectangle schemes only ever
// look at bits 0 and 1 (canonical, 90-degree swap).
type Rotations uint8

const (
	RotationNone Rotations = 1 << iota
	RotationXY
	RotationXZ
	RotationYZ
	RotationXYZ1
	RotationXYZ2
)

// Allows reports whether rotation r is permitted by the mask.
func (m Rotations) Allows(r Rotations) bool { return m&r != 0 }

// ItemType is an immutable kind of piece to pack, built once by Builder and
// never mutated afterward.
type ItemType struct {
	ID    int
	Label string

	W, H, Z float64 // box dims; Z == 0 for 2D problems

	Oriented  bool
	Rotations Rotations

	Copies int // -1 means effectively unlimited

	Profit float64 // defaults to area/volume at build time
	Weight float64

	GroupID              int
	StackabilityID       int
	MaximumStackability  int
	MaximumWeightAbove   float64
	NestingHeight        float64
}

// Area returns w*h for 2D item types.
func (t ItemType) Area() float64 { return t.W * t.H }

// Volume returns w*h*z for 3D item types.
func (t ItemType) Volume() float64 { return t.W * t.H * t.Z }

// SemiTrailerTruckData describes the axle geometry of a bin type used for
// box-stacks load-balancing checks.
type SemiTrailerTruckData struct {
	MiddleAxlePosition     float64
	MiddleAxleMaximumWeight float64
	RearAxlePosition       float64
	RearAxleMaximumWeight  float64
}

// ComputeAxleWeights distributes a weighted moment sum (∑ (x + w/2)·weight)
// and a total weight across the middle and rear axle, mirroring the
// single-point lever-arm model the original branching scheme uses.
func (d SemiTrailerTruckData) ComputeAxleWeights(weightedSum, totalWeight, length float64) (middle, rear float64) {
	if length <= 0 {
		return 0, totalWeight
	}
	centroid := weightedSum / maxFloat(totalWeight, 1e-12)
	// Lever-arm split around the two axle positions; values clamp to the
	// physically sane range [0, totalWeight].
	span := d.RearAxlePosition - d.MiddleAxlePosition
	if span <= 0 {
		return totalWeight, 0
	}
	rearShare := (centroid - d.MiddleAxlePosition) / span
	rearShare = clamp(rearShare, 0, 1)
	rear = totalWeight * rearShare
	middle = totalWeight - rear
	return middle, rear
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// TrimKind distinguishes a hard trim (a cut may never cross it) from a soft
// trim (a cut may extend into it if doing so produces no waste).
type TrimKind int

const (
	TrimSoft TrimKind = iota
	TrimHard
)

// Trim describes the unusable border along one edge of a bin.
type Trim struct {
	Length float64
	Kind   TrimKind
}

// Defect is an axis-aligned rectangle within a bin type that items must not
// overlap and, unless explicitly allowed, that cuts must not cross.
type Defect struct {
	ID     int
	BinID  int
	X, Y   float64
	LX, LY float64
}

// Intersects reports whether the open rectangle [xs,xe)x[ys,ye) overlaps d.
// The test uses strict inequalities: a placement that merely touches a
// defect along an edge or at a corner does not intersect it.
func (d Defect) Intersects(xs, ys, xe, ye float64) bool {
	return xs < d.X+d.LX && xe > d.X && ys < d.Y+d.LY && ye > d.Y
}

// BinType is an immutable container kind, built once by Builder.
type BinType struct {
	ID    int
	Label string

	X, Y, Z float64

	LeftTrim, RightTrim   Trim
	BottomTrim, TopTrim   Trim

	Copies    int // -1 means unlimited
	CopiesMin int

	Cost                 float64
	MaximumWeight        float64
	MaximumStackDensity  float64

	Truck SemiTrailerTruckData

	Defects []Defect
}

// Area returns x*y.
func (b BinType) Area() float64 { return b.X * b.Y }

// AnyDefectIntersects reports whether any of b's defects overlaps the open
// rectangle [xs,xe)x[ys,ye).
func (b BinType) AnyDefectIntersects(xs, ys, xe, ye float64) bool {
	for _, d := range b.Defects {
		if d.Intersects(xs, ys, xe, ye) {
			return true
		}
	}
	return false
}

// Volume returns x*y*z.
func (b BinType) Volume() float64 { return b.X * b.Y * b.Z }

// Group aggregates item types sharing a group id, used for unloading-order
// and per-group weight checks.
type Group struct {
	ID             int
	ItemTypes      []int
	NumberOfItems  int
}

// Instance is the read-only problem description consumed by every
// branching scheme. Construct it with Builder; once Build() returns, an
// Instance is never mutated.
type Instance struct {
	RunID uuid.UUID

	ItemTypes []ItemType
	BinTypes  []BinType

	Objective           Objective
	UnloadingConstraint UnloadingConstraint

	// NoCheckWeightGroups lists group ids exempted from weight-constraint
	// checking (parameters.csv "no-check-weight-constraints").
	NoCheckWeightGroups map[int]bool

	// Derived fields, computed once by Builder.Build.
	ItemArea                  float64
	ItemVolume                float64
	LargestItemProfit         float64
	LargestEfficiencyItemType int

	BinArea   float64
	BinVolume float64
	BinWeight float64

	// BinTypeIDs expands each bin type by its copies count, bin position -> type id.
	BinTypeIDs []int

	// PreviousBinArea/Volume[binPos] is the cumulative area/volume of all
	// bin positions before binPos, used by several lower bounds.
	PreviousBinArea   []float64
	PreviousBinVolume []float64

	Groups map[int]*Group

	SmallestItemWidth  float64
	SmallestItemHeight float64
	TotalItemWidth     float64
	TotalItemHeight    float64
}

// ItemTypeByID returns the item type with the given id, or false if absent.
func (inst *Instance) ItemTypeByID(id int) (ItemType, bool) {
	if id < 0 || id >= len(inst.ItemTypes) {
		return ItemType{}, false
	}
	return inst.ItemTypes[id], true
}

// BinTypeByID returns the bin type with the given id, or false if absent.
func (inst *Instance) BinTypeByID(id int) (BinType, bool) {
	if id < 0 || id >= len(inst.BinTypes) {
		return BinType{}, false
	}
	return inst.BinTypes[id], true
}

// NumberOfBins returns the total number of bin positions available,
// expanding copies (a bin type with copies == -1 counts as a large but
// finite number, matching the original's "unlimited" convention).
func (inst *Instance) NumberOfBins() int { return len(inst.BinTypeIDs) }

const unlimitedCopies = 1 << 20

// InstanceBuilder assembles an Instance. Create one with
// NewInstanceBuilder: the zero value has a nil group-exclusion map, so
// ExcludeGroupFromWeightCheck panics on it.
type InstanceBuilder struct {
	itemTypes []ItemType
	binTypes  []BinType
	defects   []Defect

	objective   Objective
	unloading   UnloadingConstraint
	noCheckWeight map[int]bool
}

// NewInstanceBuilder returns an empty InstanceBuilder with the Default objective.
func NewInstanceBuilder() *InstanceBuilder {
	return &InstanceBuilder{noCheckWeight: map[int]bool{}}
}

// AddItemType appends an item type, assigning it the next sequential id.
// Profit defaults to area (or volume, for 3D) when left at zero.
func (b *InstanceBuilder) AddItemType(t ItemType) int {
	t.ID = len(b.itemTypes)
	if t.Copies == 0 {
		t.Copies = 1
	}
	if t.Rotations == 0 {
		t.Rotations = RotationNone
	}
	if t.Profit == 0 {
		if t.Z > 0 {
			t.Profit = t.Volume()
		} else {
			t.Profit = t.Area()
		}
	}
	b.itemTypes = append(b.itemTypes, t)
	return t.ID
}

// AddBinType appends a bin type, assigning it the next sequential id.
func (b *InstanceBuilder) AddBinType(t BinType) int {
	t.ID = len(b.binTypes)
	if t.Copies == 0 {
		t.Copies = 1
	}
	b.binTypes = append(b.binTypes, t)
	return t.ID
}

// AddDefect appends a defect to the bin type it names.
func (b *InstanceBuilder) AddDefect(d Defect) {
	d.ID = len(b.defects)
	b.defects = append(b.defects, d)
	if d.BinID >= 0 && d.BinID < len(b.binTypes) {
		b.binTypes[d.BinID].Defects = append(b.binTypes[d.BinID].Defects, d)
	}
}

// SetObjective sets the instance's objective.
func (b *InstanceBuilder) SetObjective(o Objective) { b.objective = o }

// SetUnloadingConstraint sets the instance's unloading constraint.
func (b *InstanceBuilder) SetUnloadingConstraint(c UnloadingConstraint) { b.unloading = c }

// ExcludeGroupFromWeightCheck marks group id g exempt from weight-constraint
// checking (parameters.csv "no-check-weight-constraints").
func (b *InstanceBuilder) ExcludeGroupFromWeightCheck(g int) { b.noCheckWeight[g] = true }

// Build validates the accumulated item/bin types and returns the finished
// read-only Instance, or a ConfigError wrapping ErrConfiguration.
func (b *InstanceBuilder) Build() (*Instance, error) {
	if len(b.binTypes) == 0 {
		return nil, ConfigError("instance has no bin types")
	}
	isOpenDim := b.objective == OpenDimensionX || b.objective == OpenDimensionY || b.objective == OpenDimensionZ
	if isOpenDim && len(b.binTypes) != 1 {
		return nil, ConfigError("objective %s requires exactly one bin type, got %d", b.objective, len(b.binTypes))
	}

	for _, t := range b.itemTypes {
		if t.W <= 0 || t.H <= 0 || (t.Z < 0) {
			return nil, ConfigError("item type %d has non-positive dimensions", t.ID)
		}
		if t.Copies < -1 {
			return nil, ConfigError("item type %d has invalid copies %d", t.ID, t.Copies)
		}
		if t.GroupID < 0 {
			return nil, ConfigError("item type %d has negative group id", t.ID)
		}
	}
	for _, t := range b.binTypes {
		if t.X <= 0 || t.Y <= 0 || t.Z < 0 {
			return nil, ConfigError("bin type %d has non-positive dimensions", t.ID)
		}
		if t.CopiesMin > t.Copies && t.Copies != -1 {
			return nil, ConfigError("bin type %d has copies_min %d > copies %d", t.ID, t.CopiesMin, t.Copies)
		}
	}

	inst := &Instance{
		RunID:               uuid.New(),
		ItemTypes:           b.itemTypes,
		BinTypes:            b.binTypes,
		Objective:           b.objective,
		UnloadingConstraint: b.unloading,
		NoCheckWeightGroups: b.noCheckWeight,
		Groups:              map[int]*Group{},
	}
	inst.computeDerivedFields()
	return inst, nil
}

func (inst *Instance) computeDerivedFields() {
	inst.SmallestItemWidth, inst.SmallestItemHeight = -1, -1
	for _, t := range inst.ItemTypes {
		copies := t.Copies
		if copies == -1 {
			copies = unlimitedCopies
		}
		inst.ItemArea += t.Area() * float64(copies)
		inst.ItemVolume += t.Volume() * float64(copies)
		inst.TotalItemWidth += t.W * float64(copies)
		inst.TotalItemHeight += t.H * float64(copies)
		if inst.SmallestItemWidth < 0 || t.W < inst.SmallestItemWidth {
			inst.SmallestItemWidth = t.W
		}
		if inst.SmallestItemHeight < 0 || t.H < inst.SmallestItemHeight {
			inst.SmallestItemHeight = t.H
		}
		if t.Profit > inst.LargestItemProfit {
			inst.LargestItemProfit = t.Profit
		}
		area := t.Area()
		if t.Z > 0 {
			area = t.Volume()
		}
		if area > 0 {
			eff := t.Profit / area
			bestArea, bestProfit := 0.0, 0.0
			if best, ok := inst.ItemTypeByID(inst.LargestEfficiencyItemType); ok {
				bestArea = best.Area()
				if best.Z > 0 {
					bestArea = best.Volume()
				}
				bestProfit = best.Profit
			}
			bestEff := 0.0
			if bestArea > 0 {
				bestEff = bestProfit / bestArea
			}
			if eff > bestEff {
				inst.LargestEfficiencyItemType = t.ID
			}
		}

		g, ok := inst.Groups[t.GroupID]
		if !ok {
			g = &Group{ID: t.GroupID}
			inst.Groups[t.GroupID] = g
		}
		g.ItemTypes = append(g.ItemTypes, t.ID)
		g.NumberOfItems += copies
	}

	for binPos, t := range inst.expandBinPositions() {
		inst.BinTypeIDs = append(inst.BinTypeIDs, t.ID)
		var prevArea, prevVolume float64
		if binPos > 0 {
			prevArea = inst.PreviousBinArea[binPos-1] + inst.BinTypes[inst.BinTypeIDs[binPos-1]].Area()
			prevVolume = inst.PreviousBinVolume[binPos-1] + inst.BinTypes[inst.BinTypeIDs[binPos-1]].Volume()
		}
		inst.PreviousBinArea = append(inst.PreviousBinArea, prevArea)
		inst.PreviousBinVolume = append(inst.PreviousBinVolume, prevVolume)
	}
	for _, t := range inst.BinTypes {
		copies := t.Copies
		if copies == -1 {
			copies = unlimitedCopies
		}
		inst.BinArea += t.Area() * float64(copies)
		inst.BinVolume += t.Volume() * float64(copies)
		inst.BinWeight += t.MaximumWeight * float64(copies)
	}
}

// expandBinPositions walks the bin types in order, repeating each one
// `copies` times (capped at unlimitedCopies), matching the original's
// bin_type_ids[bin_pos] expansion.
func (inst *Instance) expandBinPositions() []BinType {
	var out []BinType
	for _, t := range inst.BinTypes {
		copies := t.Copies
		if copies == -1 {
			copies = unlimitedCopies
		}
		for i := 0; i < copies; i++ {
			out = append(out, t)
		}
	}
	return out
}
