package simulator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNeuronParamsValidate(t *testing.T) {
	require.NoError(t, StandardParams().Validate())

	bad := StandardParams()
	bad.Tm = 0
	require.Error(t, bad.Validate())

	bad = StandardParams()
	bad.Tf = -1
	require.Error(t, bad.Validate())

	bad = StandardParams()
	bad.Vreset = bad.Vt
	require.Error(t, bad.Validate())
}

func TestNeuronLinearIntegration(t *testing.T) {
	n := NewExplicitNeuron("n", StandardParams())
	n.ReceiveSynapticEvent(SynapseGe, 10, 0)
	require.Equal(t, 10.0, n.Ge())
	require.Equal(t, 0.0, n.V(), "ge applies at arrival, the membrane moves only afterwards")

	// Advance 50ms with slope ge/tm = 0.1/ms via a zero-weight probe
	n.ReceiveSynapticEvent(SynapseV, 0, 50)
	require.InDelta(t, 5.0, n.V(), 1e-12)
	require.Equal(t, 50.0, n.LastEventTime())
}

func TestNeuronGatedFilterIntegration(t *testing.T) {
	params := StandardParams()
	n := NewExplicitNeuron("n", params)
	n.ReceiveSynapticEvent(SynapseGf, 30, 0)
	n.ReceiveSynapticEvent(SynapseGate, 1, 0)
	require.True(t, n.Gate())

	n.ReceiveSynapticEvent(SynapseV, 0, 20)

	decay := math.Exp(-20.0 / params.Tf)
	wantV := (30.0 * params.Tf / params.Tm) * (1 - decay)
	require.InDelta(t, wantV, n.V(), 1e-12)
	require.InDelta(t, 30.0*decay, n.Gf(), 1e-12, "gf decays exponentially")
}

func TestNeuronClosedGateStillDecaysGf(t *testing.T) {
	params := StandardParams()
	n := NewExplicitNeuron("n", params)
	n.ReceiveSynapticEvent(SynapseGf, 30, 0)
	require.False(t, n.Gate())

	n.ReceiveSynapticEvent(SynapseV, 0, 20)

	require.Equal(t, 0.0, n.V(), "a closed gate keeps gf out of the membrane")
	require.InDelta(t, 30.0*math.Exp(-20.0/params.Tf), n.Gf(), 1e-12)
}

func TestNeuronGateWeightsAccumulate(t *testing.T) {
	n := NewExplicitNeuron("n", StandardParams())
	n.ReceiveSynapticEvent(SynapseGate, 1, 0)
	n.ReceiveSynapticEvent(SynapseGate, 1, 0)
	require.True(t, n.Gate())
	n.ReceiveSynapticEvent(SynapseGate, -1, 0)
	require.True(t, n.Gate(), "gate stays open while the weight sum is positive")
	n.ReceiveSynapticEvent(SynapseGate, -1, 0)
	require.False(t, n.Gate())
}

func TestNeuronBackwardsTimePanics(t *testing.T) {
	n := NewExplicitNeuron("n", StandardParams())
	n.ReceiveSynapticEvent(SynapseV, 1, 10)
	require.Panics(t, func() {
		n.ReceiveSynapticEvent(SynapseV, 1, 5)
	})
}

func TestNeuronReset(t *testing.T) {
	n := NewExplicitNeuron("n", StandardParams())
	n.ReceiveSynapticEvent(SynapseV, 6, 0)
	n.ReceiveSynapticEvent(SynapseGe, 10, 0)
	n.ReceiveSynapticEvent(SynapseGf, 20, 0)
	n.ReceiveSynapticEvent(SynapseGate, 1, 0)

	n.markReset(30)
	require.Equal(t, 0.0, n.V())
	require.Equal(t, 0.0, n.Ge())
	require.Equal(t, 0.0, n.Gf())
	require.False(t, n.Gate())
	require.Equal(t, 30.0, n.LastEventTime(),
		"later events integrate from the reset instant, not the previous event")
}

func TestNewExplicitNeuronPanicsOnInvalidParams(t *testing.T) {
	require.Panics(t, func() {
		NewExplicitNeuron("n", NeuronParams{Vt: 10, Tm: 0, Tf: 20})
	})
}

func TestParseSynapseType(t *testing.T) {
	for _, want := range []SynapseType{SynapseV, SynapseGe, SynapseGf, SynapseGate} {
		got, err := ParseSynapseType(want.String())
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseSynapseType("bogus")
	require.Error(t, err)
}
