package ui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"gostat/domain/dataset"
)

func smallDataset(name string) *dataset.Dataset {
	return dataset.New(name, []string{"x", "y"}, [][]string{
		{"1", "2"},
		{"3", "4"},
	})
}

func TestRegistryAttachAndGet(t *testing.T) {
	r := NewRegistry()
	ds := smallDataset("one.csv")

	r.Attach("tok", ds)

	sess, ok := r.Get("tok")
	assert.True(t, ok)
	assert.Same(t, ds, sess.Dataset)

	_, ok = r.Get("other")
	assert.False(t, ok)
}

func TestRegistryAttachReplacesDataset(t *testing.T) {
	r := NewRegistry()
	first := smallDataset("first.csv")
	second := smallDataset("second.csv")

	r.Attach("tok", first)
	r.Attach("tok", second)

	sess, ok := r.Get("tok")
	assert.True(t, ok)
	assert.Same(t, second, sess.Dataset)

	// both datasets stay reachable by id for API clients
	_, ok = r.Dataset(first.ID())
	assert.True(t, ok)
	_, ok = r.Dataset(second.ID())
	assert.True(t, ok)
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	ds := smallDataset("one.csv")
	r.Attach("tok", ds)

	r.Clear("tok")

	sess, ok := r.Get("tok")
	if ok {
		assert.Nil(t, sess.Dataset)
	}
	_, ok = r.Dataset(ds.ID())
	assert.False(t, ok)
}

func TestRegistryDatasetLookup(t *testing.T) {
	r := NewRegistry()
	ds := smallDataset("one.csv")

	r.PutDataset(ds)

	got, ok := r.Dataset(ds.ID())
	assert.True(t, ok)
	assert.Same(t, ds, got)
}

func TestRegistryEviction(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < maxSessions+10; i++ {
		r.Attach(fmt.Sprintf("tok-%d", i), smallDataset(fmt.Sprintf("ds-%d.csv", i)))
	}

	assert.LessOrEqual(t, r.Len(), maxSessions)

	// the newest session survives
	_, ok := r.Get(fmt.Sprintf("tok-%d", maxSessions+9))
	assert.True(t, ok)
}
