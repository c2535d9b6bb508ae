package dominance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type probe struct {
	key   int
	score int
}

func probeEqual(a, b probe) bool { return a.key == b.key }
func probeHash(p probe) uint64   { return uint64(p.key) }
func probeBetter(a, b probe) bool { return a.score > b.score }

func TestInsertUniqueAcceptsFirstInsertion(t *testing.T) {
	h := New(probeEqual, probeHash)
	assert.True(t, h.InsertUnique(probe{key: 1, score: 5}, probeBetter))
}

func TestInsertUniqueRejectsEquivalentWorseNode(t *testing.T) {
	h := New(probeEqual, probeHash)
	h.InsertUnique(probe{key: 1, score: 10}, probeBetter)
	assert.False(t, h.InsertUnique(probe{key: 1, score: 5}, probeBetter))
}

func TestInsertUniqueReplacesEquivalentBetterNode(t *testing.T) {
	h := New(probeEqual, probeHash)
	h.InsertUnique(probe{key: 1, score: 5}, probeBetter)
	assert.True(t, h.InsertUnique(probe{key: 1, score: 10}, probeBetter))
	assert.Equal(t, 10, h.buckets[probeHash(probe{key: 1})][0].score)
}

func TestInsertUniqueKeepsDistinctKeysSeparate(t *testing.T) {
	h := New(probeEqual, probeHash)
	h.InsertUnique(probe{key: 1, score: 5}, probeBetter)
	assert.True(t, h.InsertUnique(probe{key: 2, score: 1}, probeBetter))
	assert.Len(t, h.buckets, 2)
}

func TestRemoveDeletesMatchingEntry(t *testing.T) {
	h := New(probeEqual, probeHash)
	p := probe{key: 1, score: 5}
	h.InsertUnique(p, probeBetter)
	h.Remove(p)
	assert.Empty(t, h.buckets[probeHash(p)])
}

func TestRemoveIsNoopWhenAbsent(t *testing.T) {
	h := New(probeEqual, probeHash)
	assert.NotPanics(t, func() { h.Remove(probe{key: 9}) })
}
