package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryMintInputIsMemoizedPerSlot(t *testing.T) {
	r := NewRegistry(&scriptedSource{ints: []int{2, 2, 1}})

	a := r.MintInput(4)
	b := r.MintInput(4)
	c := r.MintInput(4)

	assert.Equal(t, NewInputGene(0, 2), a)
	assert.Equal(t, a, b)
	assert.Equal(t, NewInputGene(1, 1), c)
	assert.Equal(t, 2, r.Counter())
}

func TestRegistryInputsAndOutputsAreSeparate(t *testing.T) {
	r := NewRegistry(&scriptedSource{})

	in := r.MintInput(1)
	out := r.MintOutput(1)

	assert.Equal(t, InputNode, in.Type)
	assert.Equal(t, OutputNode, out.Type)
	assert.NotEqual(t, in.ID, out.ID)
	assert.Equal(t, out, r.MintOutput(1))
}

func TestRegistryMintConnection(t *testing.T) {
	r := NewRegistry(&scriptedSource{floats: []float64{0.25, 0.75, 0.5}})

	a := r.MintConnection(3, 4)
	b := r.MintConnection(3, 4)
	c := r.MintConnection(4, 3)

	assert.Equal(t, ConnectionGene{InNodeID: 3, OutNodeID: 4, Weight: 0.25, Enabled: true, Innovation: 0}, a)
	assert.Equal(t, a.Innovation, b.Innovation)
	assert.Equal(t, 0.75, b.Weight)
	assert.NotEqual(t, a.Innovation, c.Innovation)
}

func TestRegistryMintHiddenIsKeyedBySplitPair(t *testing.T) {
	r := NewRegistry(&scriptedSource{fallback: 0.5})
	split := r.MintConnection(0, 1)

	h1 := r.MintHidden(split)
	split.Weight = 0.9
	split.Enabled = false
	h2 := r.MintHidden(split)
	h3 := r.MintHidden(r.MintConnection(1, 0))

	assert.Equal(t, HiddenNode, h1.Type)
	assert.Equal(t, NoSlot, h1.Slot)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1.ID, h3.ID)
	assert.NotEqual(t, split.Innovation, h1.ID)
}

func TestRegistrySharesOneCounter(t *testing.T) {
	r := NewRegistry(&scriptedSource{fallback: 0.5})

	in := r.MintInput(1)
	out := r.MintOutput(1)
	c := r.MintConnection(in.ID, out.ID)
	h := r.MintHidden(c)

	assert.Equal(t, []int{0, 1, 2, 3}, []int{in.ID, out.ID, c.Innovation, h.ID})
	assert.Equal(t, 4, r.Counter())
}

func TestRegistryResetEpoch(t *testing.T) {
	r := NewRegistry(&scriptedSource{fallback: 0.5})
	before := r.MintConnection(0, 1)

	r.ResetEpoch()
	after := r.MintConnection(0, 1)

	assert.Greater(t, after.Innovation, before.Innovation)
	assert.Equal(t, after.Innovation, r.MintConnection(0, 1).Innovation)
}

func TestRegistryNewGenome(t *testing.T) {
	r := NewRegistry(&scriptedSource{ints: []int{3, 1}, fallback: 0.5})
	g := r.NewGenome(4, 2)

	assert.Equal(t, []NodeGene{NewInputGene(0, 3), NewOutputGene(1, 1)}, g.NodeGenes())
	assert.Equal(t, []ConnectionGene{{InNodeID: 0, OutNodeID: 1, Weight: 0.5, Enabled: true, Innovation: 2}}, g.ConnectionGenes())
}

func TestRegistryIsDeterministic(t *testing.T) {
	run := func() []byte {
		r := NewRegistry(NewRandomSource(11))
		b := NewBreeder(DefaultConfig(), r, NewRandomSource(12), discardLogger())
		g := r.NewGenome(4, 4)
		for i := 0; i < 20; i++ {
			g = b.Mutate(g, 4, 4)
		}
		data, err := g.Save()
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, run(), run())
}

func TestRegistryStateRoundTrip(t *testing.T) {
	r := NewRegistry(&scriptedSource{ints: []int{1, 2}, fallback: 0.5})
	in := r.MintInput(4)
	out := r.MintOutput(4)
	c := r.MintConnection(in.ID, out.ID)
	h := r.MintHidden(c)

	restored := RestoreRegistry(r.State(), &scriptedSource{ints: []int{1, 2}, fallback: 0.5})

	assert.Equal(t, r.Counter(), restored.Counter())
	assert.Equal(t, in, restored.MintInput(4))
	assert.Equal(t, out, restored.MintOutput(4))
	assert.Equal(t, c.Innovation, restored.MintConnection(in.ID, out.ID).Innovation)
	assert.Equal(t, h, restored.MintHidden(c))
	assert.Equal(t, r.Counter(), restored.Counter())
}
