package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvas-infra/patterns/internal/pattern"
)

func chain(deps map[string][]string, order ...string) *pattern.Pattern {
	p := &pattern.Pattern{ID: "p"}
	for _, id := range order {
		p.Components = append(p.Components, pattern.ComponentReference{
			ComponentID: "generic-service", InstanceID: id, Dependencies: deps[id],
		})
	}
	return p
}

func TestFindCycle_ThreeNodeCycle(t *testing.T) {
	p := chain(map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}}, "A", "B", "C")

	c, found := FromPattern(p).FindCycle()
	require.True(t, found)
	assert.Equal(t, "C", c.Node)
	assert.Equal(t, "A", c.DependsOn)
	assert.Equal(t, []string{"A", "B", "C", "A"}, c.Path)
}

func TestFindCycle_AcyclicDeepChain(t *testing.T) {
	// a -> b -> c -> d -> e -> f plus a diamond a -> c
	p := chain(map[string][]string{
		"a": {"b", "c"}, "b": {"c"}, "c": {"d"}, "d": {"e"}, "e": {"f"},
	}, "a", "b", "c", "d", "e", "f")

	_, found := FromPattern(p).FindCycle()
	assert.False(t, found)
}

func TestFindCycle_IgnoresUnknown(t *testing.T) {
	p := chain(map[string][]string{"a": {"ghost"}}, "a")
	_, found := FromPattern(p).FindCycle()
	assert.False(t, found)
}

func TestFindCycle_SelfDependency(t *testing.T) {
	p := chain(map[string][]string{"a": {"ghost", "a"}, "b": {"a"}}, "b", "a")
	c, found := FromPattern(p).FindCycle()
	require.True(t, found)
	assert.Equal(t, "a", c.Node)
	assert.Equal(t, "a", c.DependsOn)
	assert.Equal(t, []string{"a", "a"}, c.Path)

	_, _, err := FromPattern(p).Resolve()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestResolve_Tiers(t *testing.T) {
	p := chain(map[string][]string{
		"web": {"api"}, "api": {"db", "cache"},
	}, "web", "api", "db", "cache")

	ordered, tiers, err := FromPattern(p).Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"db", "cache", "api", "web"}, ordered)
	assert.Equal(t, [][]string{{"db", "cache"}, {"api"}, {"web"}}, tiers)
}

func TestResolve_Cycle(t *testing.T) {
	p := chain(map[string][]string{"a": {"b"}, "b": {"a"}}, "a", "b")
	_, _, err := FromPattern(p).Resolve()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestResolve_Empty(t *testing.T) {
	ordered, tiers, err := New().Resolve()
	assert.NoError(t, err)
	assert.Nil(t, ordered)
	assert.Nil(t, tiers)
	assert.Equal(t, 0, FromPattern(nil).Len())
}
