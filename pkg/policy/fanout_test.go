package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

func TestStaticResolver(t *testing.T) {
	a := &endpoint.Endpoint{ID: "a"}
	b := &endpoint.Endpoint{ID: "b"}
	group := &endpoint.Endpoint{ID: "group", Metadata: endpoint.Metadata{FanOut: []string{"b", "a"}}}
	broken := &endpoint.Endpoint{ID: "broken", Metadata: endpoint.Metadata{FanOut: []string{"a", "missing"}}}

	r := NewStaticResolver([]*endpoint.Endpoint{a, b, group, nil})

	targets, ok := r.Resolve(group)
	require.True(t, ok)
	assert.Equal(t, []*endpoint.Endpoint{b, a}, targets)

	_, ok = r.Resolve(broken)
	assert.False(t, ok)
}

func TestFanOutPolicy(t *testing.T) {
	first := &endpoint.Endpoint{ID: "first"}
	x := &endpoint.Endpoint{ID: "x"}
	y := &endpoint.Endpoint{ID: "y"}
	z := &endpoint.Endpoint{ID: "z"}
	group := &endpoint.Endpoint{ID: "group", Metadata: endpoint.Metadata{FanOut: []string{"x", "y", "z"}}}
	empty := &endpoint.Endpoint{ID: "empty", Metadata: endpoint.Metadata{FanOut: []string{}}}
	last := &endpoint.Endpoint{ID: "last"}

	p := NewFanOutPolicy(NewStaticResolver([]*endpoint.Endpoint{x, y, z}))
	assert.True(t, p.AppliesTo([]*endpoint.Endpoint{first, group}))
	assert.False(t, p.AppliesTo([]*endpoint.Endpoint{first, empty}))

	set := candidate.New([]candidate.Candidate{
		{Endpoint: first, Score: 0},
		{Endpoint: group, Score: 1},
		{Endpoint: last, Score: 2},
	})
	values := endpoint.Values{"id": "9"}
	require.NoError(t, set.Update(1, func(st *candidate.State) { st.Values = values }))

	require.NoError(t, p.Apply(newReq("GET", "/", ""), set))

	require.Equal(t, 5, set.Count())
	assert.Equal(t, []string{"first", "x", "y", "z", "last"}, validIDs(set))
	for i := 1; i <= 3; i++ {
		st, err := set.At(i)
		require.NoError(t, err)
		assert.Equal(t, 1, st.Score)
		assert.Equal(t, "9", st.Values.String("id"))
	}
	st, err := set.At(4)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Score)
}

func TestFanOutPolicy_SkipsInvalidAndTargets(t *testing.T) {
	// A target that itself declares a fan-out is not expanded again.
	inner := &endpoint.Endpoint{ID: "inner", Metadata: endpoint.Metadata{FanOut: []string{"leaf"}}}
	leaf := &endpoint.Endpoint{ID: "leaf"}
	outer := &endpoint.Endpoint{ID: "outer", Metadata: endpoint.Metadata{FanOut: []string{"inner"}}}
	off := &endpoint.Endpoint{ID: "off", Metadata: endpoint.Metadata{FanOut: []string{"leaf", "leaf"}}}

	p := NewFanOutPolicy(NewStaticResolver([]*endpoint.Endpoint{inner, leaf}))
	set := newSet(off, outer)
	require.NoError(t, set.SetValidity(0, false))

	require.NoError(t, p.Apply(newReq("GET", "/", ""), set))
	assert.Equal(t, 2, set.Count())
	assert.Equal(t, []string{"inner"}, validIDs(set))
}

func TestFanOutPolicy_EmptyTargets(t *testing.T) {
	group := &endpoint.Endpoint{ID: "group", Metadata: endpoint.Metadata{FanOut: []string{"gone"}}}
	after := &endpoint.Endpoint{ID: "after"}

	p := NewFanOutPolicy(emptyResolver{})
	set := newSet(group, after)
	require.NoError(t, p.Apply(newReq("GET", "/", ""), set))

	assert.Equal(t, 2, set.Count())
	assert.Equal(t, []string{"after"}, validIDs(set))
}

func TestFanOutPolicy_Unresolved(t *testing.T) {
	group := &endpoint.Endpoint{ID: "group", Metadata: endpoint.Metadata{FanOut: []string{"missing"}}}
	p := NewFanOutPolicy(NewStaticResolver(nil))

	err := p.Apply(newReq("GET", "/", ""), newSet(group))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

type emptyResolver struct{}

func (emptyResolver) Resolve(*endpoint.Endpoint) ([]*endpoint.Endpoint, bool) { return nil, true }
