// Package ibs implements the iterative beam search driver: a generic
// best-first tree search that consumes any branching scheme and explores
// its tree under a size-bounded frontier, growing the bound geometrically
// across passes until a full pass completes without truncation.
package ibs

import (
	"sort"

	"github.com/piwi3910/packingsolver/internal/dominance"
	"github.com/piwi3910/packingsolver/internal/model"
)

// Scheme is the contract a branching scheme must satisfy to be driven by
// Run. N is the node type, I the insertion type; both are scheme-specific
// (see internal/rectangle, internal/rectangleguillotine, internal/box,
// internal/boxstacks).
type Scheme[N any, I any] interface {
	Root() N
	Insertions(n N) []I
	Child(n N, ins I) N
	Better(n1, n2 N) bool
	Bound(n1, n2 N) bool
	Leaf(n N) bool
	ToSolution(n N) (*model.Solution, error)
	NodeHasher() (equal func(a, b N) bool, hash func(n N) uint64)
}

// Depth reports which depth layer a node belongs to, needed because some
// insertions advance item count by more than one (e.g. the rectangle-
// guillotine two-item Roadef2018 insertion). Schemes whose every insertion
// advances depth by exactly one can implement this as a counter on N. Run
// does not consult this interface: it takes the same information as its
// depthOf argument, which routes a child into q_next vs q_next_2.
type Depth[N any] interface {
	NodeDepth(n N) int
}

// Info carries cancellation state shared with the caller. The zero value
// never cancels.
type Info struct {
	needsToEnd   func() bool
	NodeLimit    int64
	nodesVisited int64
}

// NewInfo returns an Info whose needs_to_end check is the given function
// (nil means never cancel).
func NewInfo(needsToEnd func() bool, nodeLimit int64) *Info {
	return &Info{needsToEnd: needsToEnd, NodeLimit: nodeLimit}
}

func (info *Info) cancelled() bool {
	if info == nil {
		return false
	}
	if info.NodeLimit > 0 && info.nodesVisited > info.NodeLimit {
		return true
	}
	return info.needsToEnd != nil && info.needsToEnd()
}

// Params tunes the queue-size growth schedule.
type Params struct {
	// InitialQueueSize is the first beam width tried (0 degenerates to a
	// single-node frontier, matching the original's first pass).
	InitialQueueSize int
	// GrowthFactor is the multiplier applied to the queue size between
	// passes; the original uses 1.5, rounding the fixed point at 1 up to 2
	// so the schedule is strictly increasing.
	GrowthFactor float64
	// MaxQueueSize caps the schedule (0 means unbounded).
	MaxQueueSize int
}

// DefaultParams returns the schedule 0,1,2,3,4,6,9,13,...  (growth factor 1.5).
func DefaultParams() Params {
	return Params{InitialQueueSize: 0, GrowthFactor: 1.5}
}

func (p Params) schedule() []int {
	var sizes []int
	size := p.InitialQueueSize
	for {
		sizes = append(sizes, size)
		if p.MaxQueueSize > 0 && size >= p.MaxQueueSize {
			break
		}
		next := int(float64(size) * p.GrowthFactor)
		if next <= size {
			next = size + 1 // the "+1 on fixed point" correction
		}
		size = next
		if len(sizes) > 10000 {
			break // pathological guard; the caller's node limit should fire first
		}
	}
	return sizes
}

// layer is a best-first multiset keyed by scheme.Better, bounded to
// queueSizeMax entries; history rejects/replaces dominated duplicates.
type layer[N any] struct {
	nodes   []N
	history *dominance.History[N]
}

func newLayer[N any](equal func(a, b N) bool, hash func(n N) uint64) *layer[N] {
	return &layer[N]{history: dominance.New[N](equal, hash)}
}

// Run drives scheme with the iterative beam search schedule, returning the
// best solution found (nil if none, e.g. the instance has no bin types).
func Run[N any, I any](scheme Scheme[N, I], depthOf func(N) int, params Params, info *Info) (*model.Solution, error) {
	if info == nil {
		info = NewInfo(nil, 0)
	}
	equal, hash := scheme.NodeHasher()
	var incumbentNode N
	var haveIncumbent bool
	var incumbentSolution *model.Solution

	considerLeaf := func(c N) error {
		if !haveIncumbent || scheme.Better(c, incumbentNode) {
			sol, err := scheme.ToSolution(c)
			if err != nil {
				return err
			}
			incumbentNode = c
			incumbentSolution = sol
			haveIncumbent = true
		}
		return nil
	}

	for _, queueSizeMax := range params.schedule() {
		q := newLayer[N](equal, hash)
		q.nodes = append(q.nodes, scheme.Root())
		qNext := newLayer[N](equal, hash)
		qNext2 := newLayer[N](equal, hash)
		stop := true

		depth := depthOf(q.nodes[0])
		for len(q.nodes) > 0 {
			sortByBetter(q.nodes, scheme)
			for len(q.nodes) > 0 {
				n := q.nodes[0]
				q.nodes = q.nodes[1:]
				info.nodesVisited++
				if info.cancelled() {
					return incumbentSolution, nil
				}
				if haveIncumbent && scheme.Bound(n, incumbentNode) {
					continue
				}
				for _, ins := range scheme.Insertions(n) {
					c := scheme.Child(n, ins)
					if haveIncumbent && scheme.Bound(c, incumbentNode) {
						continue
					}
					if scheme.Leaf(c) {
						if err := considerLeaf(c); err != nil {
							return nil, err
						}
						continue
					}
					target := qNext
					if depthOf(c) != depth+1 {
						target = qNext2
					}
					if len(target.nodes) >= queueSizeMax {
						stop = false
					}
					insertIntoLayer(target, c, queueSizeMax, scheme)
				}
			}
			q, qNext, qNext2 = qNext, qNext2, newLayer[N](equal, hash)
			depth++
			if len(q.nodes) == 0 {
				break
			}
		}
		if stop {
			break
		}
	}
	return incumbentSolution, nil
}

// insertIntoLayer inserts c into target if target has room, or if c is
// strictly better than target's current worst member (at which point the
// worst member is dropped), deduplicating against target.history first.
func insertIntoLayer[N any, I any](target *layer[N], c N, queueSizeMax int, scheme Scheme[N, I]) {
	if queueSizeMax <= 0 {
		return
	}
	if !target.history.InsertUnique(c, scheme.Better) {
		return
	}
	target.nodes = append(target.nodes, c)
	if len(target.nodes) <= queueSizeMax {
		return
	}
	sortByBetter(target.nodes, scheme)
	worst := target.nodes[len(target.nodes)-1]
	target.nodes = target.nodes[:len(target.nodes)-1]
	target.history.Remove(worst)
}

func sortByBetter[N any, I any](nodes []N, scheme Scheme[N, I]) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return scheme.Better(nodes[i], nodes[j])
	})
}
