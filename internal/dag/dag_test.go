package dag

import (
	"cmp"
	"errors"
	"testing"
	"time"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegraph/internal/edge"
	"github.com/vk/pipegraph/internal/graph"
)

func create(t *testing.T, pairs ...[2]string) *DAG[string] {
	t.Helper()
	b := NewBuilder[string]()
	for _, p := range pairs {
		require.NoError(t, b.AddEdge(p[0], p[1]))
	}
	d, err := b.Create()
	require.NoError(t, err)
	require.NotNil(t, d)
	return d
}

func TestCreate_SingleEdge(t *testing.T) {
	d := create(t, [2]string{"A", "B"})

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"A"}, d.NoIncomingEdges())
	assert.Equal(t, []string{"B"}, d.NoOutgoingEdges())
	assert.Equal(t, []string{"B"}, d.HeadsOf("A"))
	assert.Equal(t, []string{"A"}, d.TailsOf("B"))
	assert.Empty(t, d.HeadsOf("B"))
	assert.Empty(t, d.TailsOf("A"))
	assert.Equal(t, []string{"A", "B"}, d.TopologicalOrder())
}

func TestCreate_Empty(t *testing.T) {
	d, err := NewBuilder[int]().Create()
	require.NoError(t, err)
	assert.Zero(t, d.Len())
	assert.Empty(t, d.NoIncomingEdges())
	assert.Empty(t, d.NoOutgoingEdges())
	assert.Empty(t, d.TopologicalOrder())
	assert.Nil(t, d.Adjacency())
	assert.False(t, d.IsAncestor(1, 2))
}

func TestCreate_IsolatedNode(t *testing.T) {
	b := NewBuilder[string]().AddNode("solo")
	require.NoError(t, b.AddEdge("x", "y"))
	d, err := b.Create()
	require.NoError(t, err)

	assert.Equal(t, []string{"solo", "x"}, d.NoIncomingEdges())
	assert.Equal(t, []string{"solo", "y"}, d.NoOutgoingEdges())
	assert.True(t, d.Contains("solo"))
	assert.False(t, d.Contains("nope"))
}

func TestCreate_Cycle(t *testing.T) {
	b := NewBuilder[string]()
	require.NoError(t, b.AddEdge("A", "B"))
	require.NoError(t, b.AddEdge("B", "C"))
	require.NoError(t, b.AddEdge("C", "A"))
	require.NoError(t, b.AddEdge("start", "A"))

	d, err := b.Create()
	assert.Nil(t, d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
	assert.ErrorIs(t, err, graph.ErrCycle)

	var cycleErr *graph.CycleError[string]
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, cycleErr.Nodes())
}

func TestBuilder_SelfLoop(t *testing.T) {
	b := NewBuilder[string]()
	err := b.AddEdge("A", "A")
	assert.ErrorIs(t, err, edge.ErrSelfLoop)

	d, err := b.Create()
	require.NoError(t, err, "rejected edge must not poison the builder")
	assert.Zero(t, d.Len())
}

func TestDAG_Diamond(t *testing.T) {
	d := create(t,
		[2]string{"D", "B"},
		[2]string{"D", "C"},
		[2]string{"B", "A"},
		[2]string{"C", "A"},
	)

	assert.Equal(t, []string{"D"}, d.NoIncomingEdges())
	assert.Equal(t, []string{"A"}, d.NoOutgoingEdges())
	assert.Equal(t, []string{"B", "C"}, d.HeadsOf("D"))
	assert.Equal(t, []string{"B", "C"}, d.TailsOf("A"))

	if diff := gocmp.Diff([]string{"D", "B", "C", "A"}, d.TopologicalOrder()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	reversed := d.TopologicalOrderFunc(func(a, b string) int { return cmp.Compare(b, a) })
	assert.Equal(t, []string{"D", "C", "B", "A"}, reversed)

	assert.True(t, d.IsAncestor("D", "A"))
	assert.True(t, d.IsAncestor("B", "A"))
	assert.False(t, d.IsAncestor("A", "D"))
	assert.False(t, d.IsAncestor("B", "C"))
	assert.False(t, d.IsAncestor("D", "D"))
	assert.False(t, d.IsAncestor("D", "missing"))
}

func TestDAG_Adjacency(t *testing.T) {
	d := create(t, [2]string{"A", "B"}, [2]string{"B", "C"})

	m := d.Adjacency()
	require.NotNil(t, m)
	assert.True(t, m.IsSquare())
	assert.Equal(t, 2, m.Count())

	a, _ := d.Position("A")
	b, _ := d.Position("B")
	c, _ := d.Position("C")
	v, err := m.Get(a, b)
	require.NoError(t, err)
	assert.True(t, v)
	v, err = m.Get(a, c)
	require.NoError(t, err)
	assert.False(t, v, "adjacency holds direct edges only")

	require.NoError(t, m.Set(c, a, true))
	assert.Equal(t, 2, d.Adjacency().Count(), "returned matrix is a copy")
}

func TestDAG_UnknownNode(t *testing.T) {
	d := create(t, [2]string{"A", "B"})
	assert.Nil(t, d.HeadsOf("Z"))
	assert.Nil(t, d.TailsOf("Z"))
	_, ok := d.Position("Z")
	assert.False(t, ok)
}

func TestCreate_LongChainIsLinear(t *testing.T) {
	const n = 4000
	b := NewBuilder[int]()
	for i := 0; i < n-1; i++ {
		require.NoError(t, b.AddEdge(i, i+1))
	}

	start := time.Now()
	d, err := b.Create()
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "Create should not grow with the square of the node count")

	assert.Equal(t, []int{0}, d.NoIncomingEdges())
	assert.Equal(t, []int{n - 1}, d.NoOutgoingEdges())
	assert.True(t, d.IsAncestor(0, n-1))
	assert.True(t, d.IsAncestor(n/2, n-1))
	assert.False(t, d.IsAncestor(n-1, 0))
}
