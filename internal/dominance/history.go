// Package dominance implements the generic per-depth history map the
// iterative beam search driver uses to reject or replace dominated
// duplicate nodes, keyed on each scheme's own node-equality/hash pair.
package dominance

// History rejects or replaces nodes that are equivalent (by Equal) to one
// already recorded, keeping whichever the caller's Better ranks higher.
// Equivalence is scheme-defined: the node_hasher contract says it must
// depend only on the node's geometric frontier, never its parent pointer,
// id, or accumulators derivable from that frontier.
type History[N any] struct {
	equal  func(a, b N) bool
	hash   func(n N) uint64
	buckets map[uint64][]N
}

// New returns an empty History using the given equality and hash functions.
func New[N any](equal func(a, b N) bool, hash func(n N) uint64) *History[N] {
	return &History[N]{equal: equal, hash: hash, buckets: map[uint64][]N{}}
}

// InsertUnique looks up n's hash bucket. If an equivalent node is present
// whose priority (per better, "is n strictly better than the existing
// one") is not beaten by n, n is rejected (returns false). Otherwise n
// replaces the existing equivalent entry (or is added fresh) and true is
// returned.
func (h *History[N]) InsertUnique(n N, better func(a, b N) bool) bool {
	key := h.hash(n)
	bucket := h.buckets[key]
	for i, existing := range bucket {
		if !h.equal(n, existing) {
			continue
		}
		if !better(n, existing) {
			return false
		}
		bucket[i] = n
		h.buckets[key] = bucket
		return true
	}
	h.buckets[key] = append(bucket, n)
	return true
}

// Remove deletes n's equivalence-class entry from its bucket, used when the
// driver evicts a node from a size-bounded layer after InsertUnique added
// it.
func (h *History[N]) Remove(n N) {
	key := h.hash(n)
	bucket := h.buckets[key]
	for i, existing := range bucket {
		if h.equal(n, existing) {
			h.buckets[key] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}
