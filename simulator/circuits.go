package simulator

import "math"

// Standard STICK circuit constants: threshold, membrane and filter time
// constants, the standard excitatory weight (one full threshold per spike)
// and the unit synaptic delay.
const (
	StandardVt   = 10.0
	StandardTm   = 100.0
	StandardTf   = 20.0
	StandardTsyn = 1.0
)

// StandardParams returns the membrane parameters used by the stock circuits
func StandardParams() NeuronParams {
	return NeuronParams{
		Vt:     StandardVt,
		Tm:     StandardTm,
		Tf:     StandardTf,
		Vreset: 0.0,
	}
}

// RelayNetwork is the minimal two-neuron circuit: an input neuron wired to
// an output neuron by a single full-weight synapse. Useful as the smallest
// end-to-end exercise of spike propagation.
type RelayNetwork struct {
	*Network
	Input  *ExplicitNeuron
	Output *ExplicitNeuron
}

// NewRelayNetwork builds a relay circuit with the standard constants
func NewRelayNetwork(name string) *RelayNetwork {
	net := NewNetwork(name)
	params := StandardParams()

	input := net.AddNeuron(params, "input")
	output := net.AddNeuron(params, "output")
	net.Connect(input, output, SynapseV, StandardVt, StandardTsyn)

	return &RelayNetwork{Network: net, Input: input, Output: output}
}

// SignedConstantNetwork stores a constant value in [-1,1] as wiring: a
// recall spike produces a temporally coded spike pair on the plus or minus
// output depending on the value's sign.
type SignedConstantNetwork struct {
	*Network
	encoder DataEncoder
	value   float64

	Recall      *ExplicitNeuron
	OutputPlus  *ExplicitNeuron
	OutputMinus *ExplicitNeuron
}

// NewSignedConstantNetwork builds the memory circuit for the given value
func NewSignedConstantNetwork(name string, encoder DataEncoder, value float64) *SignedConstantNetwork {
	net := NewNetwork(name)
	params := StandardParams()
	we := StandardVt
	interval := math.Abs(value)*encoder.Tcod + encoder.Tmin

	recall := net.AddNeuron(params, "recall")
	outputPlus := net.AddNeuron(params, "output_plus")
	outputMinus := net.AddNeuron(params, "output_minus")

	// The coded value lives in the delay difference between the two
	// recall->output synapses
	if value >= 0 {
		net.Connect(recall, outputPlus, SynapseV, we, StandardTsyn)
		net.Connect(recall, outputPlus, SynapseV, we, StandardTsyn+interval)
	} else {
		net.Connect(recall, outputMinus, SynapseV, we, StandardTsyn)
		net.Connect(recall, outputMinus, SynapseV, we, StandardTsyn+interval)
	}

	return &SignedConstantNetwork{
		Network:     net,
		encoder:     encoder,
		value:       value,
		Recall:      recall,
		OutputPlus:  outputPlus,
		OutputMinus: outputMinus,
	}
}

// Value returns the stored constant
func (net *SignedConstantNetwork) Value() float64 { return net.value }

// Output returns the output neuron carrying the coded value (plus or minus
// side, by the stored value's sign)
func (net *SignedConstantNetwork) Output() *ExplicitNeuron {
	if net.value >= 0 {
		return net.OutputPlus
	}
	return net.OutputMinus
}

// DecodeOutput reads the two recorded output spikes back into the stored
// value (signed). Returns ok=false until both spikes have fired.
func (net *SignedConstantNetwork) DecodeOutput(spikes []float64) (float64, bool) {
	if len(spikes) < 2 {
		return 0, false
	}
	decoded := net.encoder.DecodeInterval(spikes[1] - spikes[0])
	if net.value < 0 {
		decoded = -decoded
	}
	return decoded, true
}
