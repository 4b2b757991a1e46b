package simulator

import "fmt"

// Network is a named assembly of neurons and synapses. Construction is pure
// data wiring; all scheduling behavior lives in the engines. Topology is
// frozen by the time a simulator starts consuming it.
type Network struct {
	name    string
	neurons []*ExplicitNeuron
	byUID   map[string]*ExplicitNeuron
}

// NewNetwork creates an empty network module
func NewNetwork(name string) *Network {
	return &Network{
		name:  name,
		byUID: make(map[string]*ExplicitNeuron),
	}
}

// Name returns the module name
func (net *Network) Name() string { return net.name }

// AddNeuron creates a neuron with a uid scoped to this module and registers
// it. Panics on duplicate names or invalid membrane parameters.
func (net *Network) AddNeuron(params NeuronParams, name string) *ExplicitNeuron {
	uid := fmt.Sprintf("%s.%s", net.name, name)
	if _, exists := net.byUID[uid]; exists {
		panic(fmt.Sprintf("BUG: duplicate neuron uid: %s", uid))
	}
	neuron := NewExplicitNeuron(uid, params)
	net.neurons = append(net.neurons, neuron)
	net.byUID[uid] = neuron
	return neuron
}

// Connect wires a directed synapse from pre to post. Weight semantics depend
// on the synapse type; delay is the fixed propagation time in virtual
// milliseconds and must be positive.
func (net *Network) Connect(pre, post *ExplicitNeuron, st SynapseType, weight, delay float64) *Synapse {
	if delay <= 0 {
		panic(fmt.Sprintf("BUG: synapse delay must be positive, got %g (%s -> %s)",
			delay, pre.UID(), post.UID()))
	}
	syn := &Synapse{
		Post:   post,
		Type:   st,
		Weight: weight,
		Delay:  delay,
	}
	pre.outSynapses = append(pre.outSynapses, syn)
	return syn
}

// Neurons returns the neurons in registration order
func (net *Network) Neurons() []*ExplicitNeuron {
	return net.neurons
}

// Neuron looks up a neuron by its full uid
func (net *Network) Neuron(uid string) (*ExplicitNeuron, bool) {
	n, ok := net.byUID[uid]
	return n, ok
}

// Size returns the number of neurons in the network
func (net *Network) Size() int {
	return len(net.neurons)
}
