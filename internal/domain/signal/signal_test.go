package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id    string
	order int
	group string
}

func newItems() *Ordered[item] {
	return NewOrdered(func(i item) int { return i.order })
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestSignalSetNotifies(t *testing.T) {
	s := New("classic")

	var seen []string
	unsubscribe := s.Subscribe(func(v string) { seen = append(seen, v) })

	s.Set("focus")
	s.Update(func(v string) string { return v + "-wide" })
	unsubscribe()
	s.Set("ignored")

	assert.Equal(t, []string{"focus", "focus-wide"}, seen)
	assert.Equal(t, "ignored", s.Get())
	assert.Equal(t, uint64(3), s.Version())
}

func TestSignalUpdateIfSkipsUnchanged(t *testing.T) {
	s := New("classic")

	var seen []string
	s.Subscribe(func(v string) { seen = append(seen, v) })

	v, changed := s.UpdateIf(func(v string) (string, bool) { return v, false })
	assert.False(t, changed)
	assert.Equal(t, "classic", v)
	assert.Equal(t, uint64(0), s.Version())

	v, changed = s.UpdateIf(func(string) (string, bool) { return "focus", true })
	assert.True(t, changed)
	assert.Equal(t, "focus", v)
	assert.Equal(t, uint64(1), s.Version())
	assert.Equal(t, []string{"focus"}, seen)
}

func TestSignalSubscriberAddedDuringNotify(t *testing.T) {
	s := New(0)

	var late int
	var lateCalls int
	s.Subscribe(func(v int) {
		if v == 1 {
			s.Subscribe(func(v int) {
				late = v
				lateCalls++
			})
		}
	})

	s.Set(1)
	assert.Equal(t, 0, lateCalls, "subscriber added mid-notify must not see the in-flight value")

	s.Set(2)
	assert.Equal(t, 1, lateCalls)
	assert.Equal(t, 2, late)
}

func TestOrderedSortsByOrderThenInsertion(t *testing.T) {
	o := newItems()
	o.Set("c", item{id: "c", order: 5})
	o.Set("a", item{id: "a", order: 1})
	o.Set("b", item{id: "b", order: 5})
	o.Set("d", item{id: "d", order: 0})

	assert.Equal(t, []string{"d", "a", "c", "b"}, ids(o.Sorted()))
	assert.Equal(t, []string{"d", "a", "c", "b"}, o.Keys())
}

func TestOrderedResortIsDeterministic(t *testing.T) {
	o := newItems()
	for _, id := range []string{"x", "y", "z"} {
		o.Set(id, item{id: id, order: 10})
	}
	first := ids(o.Sorted())

	// Replacing keeps the original insertion slot
	o.Set("x", item{id: "x", order: 10, group: "changed"})
	assert.Equal(t, first, ids(o.Sorted()))

	// Removing and re-adding moves the entry behind its equal-order peers
	require.True(t, o.Delete("x"))
	o.Set("x", item{id: "x", order: 10})
	assert.Equal(t, []string{"y", "z", "x"}, ids(o.Sorted()))

	assert.False(t, o.Delete("missing"))
	assert.Equal(t, 3, o.Len())
}

func TestOrderedGroups(t *testing.T) {
	o := newItems()
	o.Set("save", item{id: "save", order: 1, group: "file"})
	o.Set("run", item{id: "run", order: 2, group: "debug"})
	o.Set("open", item{id: "open", order: 3, group: "file"})

	groups := o.Groups(func(i item) string { return i.group })
	require.Len(t, groups, 2)
	assert.Equal(t, "file", groups[0].Key)
	assert.Equal(t, []string{"save", "open"}, ids(groups[0].Items))
	assert.Equal(t, "debug", groups[1].Key)
}

func TestOrderedSubscribeReceivesSortedSnapshot(t *testing.T) {
	o := newItems()

	var last []string
	o.Subscribe(func(items []item) { last = ids(items) })

	o.Set("b", item{id: "b", order: 2})
	o.Set("a", item{id: "a", order: 1})
	assert.Equal(t, []string{"a", "b"}, last)

	o.Delete("a")
	assert.Equal(t, []string{"b"}, last)
}
