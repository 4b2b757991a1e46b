package simulator

import (
	"fmt"
	"math"
)

// SynapseType selects which conductance channel on the target neuron a
// synaptic event affects (the four STICK channel types)
type SynapseType int

const (
	SynapseV    SynapseType = iota // instant jump of the membrane potential
	SynapseGe                      // constant-current drive
	SynapseGf                      // exponentially filtered drive
	SynapseGate                    // opens/closes the gf channel
)

func (st SynapseType) String() string {
	switch st {
	case SynapseV:
		return "V"
	case SynapseGe:
		return "ge"
	case SynapseGf:
		return "gf"
	case SynapseGate:
		return "gate"
	default:
		return "unknown"
	}
}

// ParseSynapseType parses a string into SynapseType
func ParseSynapseType(s string) (SynapseType, error) {
	switch s {
	case "V":
		return SynapseV, nil
	case "ge":
		return SynapseGe, nil
	case "gf":
		return SynapseGf, nil
	case "gate":
		return SynapseGate, nil
	default:
		return SynapseV, fmt.Errorf("invalid synapse type: %s (must be 'V', 'ge', 'gf' or 'gate')", s)
	}
}

// Synapse is a directed edge between two neurons. Immutable after network
// construction.
type Synapse struct {
	Post   Neuron
	Type   SynapseType
	Weight float64
	Delay  float64
}

// Neuron is the capability interface the simulation engines consume: read
// access to the analytic state, the outgoing synapses, and the two mutating
// behaviors. Alternative dynamics models can be substituted without touching
// the engine.
type Neuron interface {
	UID() string
	V() float64
	Ge() float64
	Gf() float64
	Gate() bool
	Tm() float64
	Tf() float64
	Vt() float64
	OutSynapses() []*Synapse

	// ReceiveSynapticEvent advances the analytic state to arrival time t and
	// applies the synaptic weight to the channel selected by st
	ReceiveSynapticEvent(st SynapseType, weight, t float64)

	// Reset returns the neuron to its resting state
	Reset()
}

// NeuronParams holds the membrane parameters of an explicit neuron
type NeuronParams struct {
	Vt     float64 `json:"vt" yaml:"vt"`         // Firing threshold
	Tm     float64 `json:"tm" yaml:"tm"`         // Membrane time constant
	Tf     float64 `json:"tf" yaml:"tf"`         // Filter time constant for gf
	Vreset float64 `json:"vreset" yaml:"vreset"` // Resting potential after reset
}

// Validate checks the membrane parameters. Non-positive time constants make
// the closed-form membrane response meaningless, so construction fails fast
// instead of letting the engine divide by zero later.
func (p NeuronParams) Validate() error {
	if p.Tm <= 0 {
		return ErrInvalidNeuron(fmt.Sprintf("tm must be positive, got %g", p.Tm))
	}
	if p.Tf <= 0 {
		return ErrInvalidNeuron(fmt.Sprintf("tf must be positive, got %g", p.Tf))
	}
	if p.Vt <= p.Vreset {
		return ErrInvalidNeuron(fmt.Sprintf("vt (%g) must exceed vreset (%g)", p.Vt, p.Vreset))
	}
	return nil
}

// ExplicitNeuron is the linear-plus-exponential STICK neuron. Between
// events the membrane follows the closed form
//
//	V(t) = V0 + (ge/tm)*t + gate*(gf*tf/tm)*(1 - e^(-t/tf))
//
// with ge constant and gf decaying as e^(-t/tf). State is advanced lazily:
// only when a synaptic event arrives does the neuron integrate from the
// last event time to the arrival time.
type ExplicitNeuron struct {
	uid    string
	params NeuronParams

	v    float64
	ge   float64
	gf   float64
	gate float64 // sum of gate synapse weights; channel open while > 0

	lastEventTime float64
	outSynapses   []*Synapse
}

// NewExplicitNeuron creates a neuron at its resting state. Panics on invalid
// parameters; malformed membrane constants are a programming error, not a
// recoverable condition.
func NewExplicitNeuron(uid string, params NeuronParams) *ExplicitNeuron {
	if err := params.Validate(); err != nil {
		panic(fmt.Sprintf("BUG: %v", err))
	}
	return &ExplicitNeuron{
		uid:    uid,
		params: params,
		v:      params.Vreset,
	}
}

func (n *ExplicitNeuron) UID() string             { return n.uid }
func (n *ExplicitNeuron) V() float64              { return n.v }
func (n *ExplicitNeuron) Ge() float64             { return n.ge }
func (n *ExplicitNeuron) Gf() float64             { return n.gf }
func (n *ExplicitNeuron) Gate() bool              { return n.gate > 0 }
func (n *ExplicitNeuron) Tm() float64             { return n.params.Tm }
func (n *ExplicitNeuron) Tf() float64             { return n.params.Tf }
func (n *ExplicitNeuron) Vt() float64             { return n.params.Vt }
func (n *ExplicitNeuron) Params() NeuronParams    { return n.params }
func (n *ExplicitNeuron) OutSynapses() []*Synapse { return n.outSynapses }

// LastEventTime returns the virtual time the analytic state was last
// advanced to
func (n *ExplicitNeuron) LastEventTime() float64 { return n.lastEventTime }

// ReceiveSynapticEvent integrates the membrane up to arrival time t, then
// applies the synaptic weight to the selected channel
func (n *ExplicitNeuron) ReceiveSynapticEvent(st SynapseType, weight, t float64) {
	n.advanceTo(t)
	n.applyWeight(st, weight)
}

// applyWeight applies a synaptic weight without advancing the analytic
// state. The fixed-timestep baseline integrates by Euler steps, so arrival
// time bookkeeping is already handled by the stepping loop.
func (n *ExplicitNeuron) applyWeight(st SynapseType, weight float64) {
	switch st {
	case SynapseV:
		n.v += weight
	case SynapseGe:
		n.ge += weight
	case SynapseGf:
		n.gf += weight
	case SynapseGate:
		n.gate += weight
	default:
		panic(fmt.Sprintf("BUG: unknown synapse type: %d", st))
	}
}

// advanceTo moves the analytic state from lastEventTime to t using the
// closed-form membrane response
func (n *ExplicitNeuron) advanceTo(t float64) {
	elapsed := t - n.lastEventTime
	if elapsed < 0 {
		panic(fmt.Sprintf("BUG: neuron %s received event at t=%.6f before last event at t=%.6f",
			n.uid, t, n.lastEventTime))
	}
	if elapsed > 0 {
		decay := math.Exp(-elapsed / n.params.Tf)
		n.v += (n.ge / n.params.Tm) * elapsed
		if n.Gate() {
			n.v += (n.gf * n.params.Tf / n.params.Tm) * (1 - decay)
		}
		n.gf *= decay
	}
	n.lastEventTime = t
}

// Reset returns the neuron to its resting state, clearing all channels
func (n *ExplicitNeuron) Reset() {
	n.v = n.params.Vreset
	n.ge = 0
	n.gf = 0
	n.gate = 0
}

// markReset records that the reset happened at virtual time t, so later
// events integrate from the reset instant rather than the previous event
func (n *ExplicitNeuron) markReset(t float64) {
	n.Reset()
	n.lastEventTime = t
}

// UpdateAndSpike performs one forward-Euler step of dt and reports whether
// the membrane crossed threshold. Used by the fixed-timestep baseline only;
// the predictive engine never steps, it integrates between events.
func (n *ExplicitNeuron) UpdateAndSpike(dt float64) (float64, bool) {
	dv := (n.ge / n.params.Tm) * dt
	if n.Gate() {
		dv += (n.gf / n.params.Tm) * dt
	}
	n.v += dv
	n.gf -= (n.gf / n.params.Tf) * dt
	return n.v, n.v >= n.params.Vt
}
