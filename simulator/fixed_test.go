package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedStepRelay(t *testing.T) {
	config := DefaultConfig()
	config.DT = 0.01

	net := NewRelayNetwork("relay")
	sim, err := NewFixedStepSimulator(net.Network, NewDataEncoder(), config)
	require.NoError(t, err)

	sim.ApplyInputSpike(net.Input, 0)
	sim.Simulate(5)

	spikes := sim.Spikes(net.Output)
	require.Len(t, spikes, 1)
	require.InDelta(t, 1.0, spikes[0], 2*config.DT)
}

func TestFixedStepMatchesPredictive(t *testing.T) {
	// Same network, same drive: the Euler baseline must agree with the
	// event-driven engine to within a step of quantization error.
	config := DefaultConfig()
	config.DT = 0.01
	config.MaxPredictionSteps = 20000

	build := func() (*Network, *ExplicitNeuron, *ExplicitNeuron) {
		net := NewNetwork("xcheck")
		params := StandardParams()
		input := net.AddNeuron(params, "input")
		target := net.AddNeuron(params, "target")
		net.Connect(input, target, SynapseGe, 10, 1)
		return net, input, target
	}

	predNet, predIn, predTarget := build()
	pred, err := NewPredictiveSimulator(predNet, NewDataEncoder(), config)
	require.NoError(t, err)
	pred.ApplyInputSpike(predIn, 0)
	pred.Run()

	fixedNet, fixedIn, fixedTarget := build()
	fixed, err := NewFixedStepSimulator(fixedNet, NewDataEncoder(), config)
	require.NoError(t, err)
	fixed.ApplyInputSpike(fixedIn, 0)
	fixed.Simulate(110)

	predSpikes := pred.Spikes(predTarget)
	fixedSpikes := fixed.Spikes(fixedTarget)
	require.Len(t, predSpikes, 1)
	require.Len(t, fixedSpikes, 1)
	require.InDelta(t, predSpikes[0], fixedSpikes[0], 3*config.DT)
}

func TestFixedStepRecordsVoltages(t *testing.T) {
	config := DefaultConfig()
	config.DT = 0.01

	net := NewRelayNetwork("relay")
	sim, err := NewFixedStepSimulator(net.Network, NewDataEncoder(), config)
	require.NoError(t, err)

	sim.ApplyInputSpike(net.Input, 0)
	sim.Simulate(2)

	trace := sim.VoltageLog()[net.Output.UID()]
	require.NotEmpty(t, trace)
	for i := 1; i < len(trace); i++ {
		require.Greater(t, trace[i].Time, trace[i-1].Time)
	}
}
