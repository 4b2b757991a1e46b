package simulator

import "fmt"

// EventType represents the type of simulation event
type EventType int

const (
	EventTypeSpikeHit EventType = iota
	EventTypeNeuronReset
)

func (et EventType) String() string {
	switch et {
	case EventTypeSpikeHit:
		return "spike_hit"
	case EventTypeNeuronReset:
		return "neuron_reset"
	default:
		return "unknown"
	}
}

// EventID is the identity of a queued event, assigned by the queue on Push.
// Identity is distinct from payload: two events with identical time and
// target are still two different events, and only identity lets the engine
// cancel one specific pending event without disturbing the other.
type EventID uint64

// Event is the base interface for all simulation events
type Event interface {
	Timestamp() float64 // Virtual time in milliseconds
	Type() EventType
	ID() EventID
	String() string

	meta() *eventMeta
}

// eventMeta carries the queue-assigned identity and the event's current heap
// position. Embedded by every event variant; maintained by the queue only.
type eventMeta struct {
	id      EventID
	heapPos int
}

func (m *eventMeta) ID() EventID      { return m.id }
func (m *eventMeta) meta() *eventMeta { return m }

// SpikeHitEvent represents a synaptic spike arriving at a neuron
type SpikeHitEvent struct {
	eventMeta
	timestamp   float64
	target      Neuron
	synapseType SynapseType
	weight      float64
}

func NewSpikeHitEvent(timestamp float64, target Neuron, synapseType SynapseType, weight float64) *SpikeHitEvent {
	return &SpikeHitEvent{
		timestamp:   timestamp,
		target:      target,
		synapseType: synapseType,
		weight:      weight,
	}
}

func (e *SpikeHitEvent) Timestamp() float64       { return e.timestamp }
func (e *SpikeHitEvent) Type() EventType          { return EventTypeSpikeHit }
func (e *SpikeHitEvent) Target() Neuron           { return e.target }
func (e *SpikeHitEvent) SynapseType() SynapseType { return e.synapseType }
func (e *SpikeHitEvent) Weight() float64          { return e.weight }
func (e *SpikeHitEvent) String() string {
	return fmt.Sprintf("SpikeHit(t=%.3f, target=%s, type=%s, w=%.2f)",
		e.timestamp, e.target.UID(), e.synapseType, e.weight)
}

// NeuronResetEvent represents a predicted threshold crossing: the neuron
// fires and returns to its resting state at this timestamp
type NeuronResetEvent struct {
	eventMeta
	timestamp float64
	target    Neuron
}

func NewNeuronResetEvent(timestamp float64, target Neuron) *NeuronResetEvent {
	return &NeuronResetEvent{
		timestamp: timestamp,
		target:    target,
	}
}

func (e *NeuronResetEvent) Timestamp() float64 { return e.timestamp }
func (e *NeuronResetEvent) Type() EventType    { return EventTypeNeuronReset }
func (e *NeuronResetEvent) Target() Neuron     { return e.target }
func (e *NeuronResetEvent) String() string {
	return fmt.Sprintf("NeuronReset(t=%.3f, target=%s)", e.timestamp, e.target.UID())
}
