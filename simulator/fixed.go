package simulator

import "fmt"

// FixedStepSimulator is the non-predictive baseline: it advances every
// neuron by forward-Euler steps of DT and detects threshold crossings after
// the fact. Kept for cross-checking the predictive engine; it needs no
// cancellation because nothing is ever scheduled speculatively.
type FixedStepSimulator struct {
	config  SimConfig
	net     *Network
	encoder DataEncoder
	queue   *CancelableEventQueue

	spikeLog   map[string][]float64
	voltageLog map[string][]VoltageSample
}

// NewFixedStepSimulator creates a baseline simulator over a frozen network
func NewFixedStepSimulator(net *Network, encoder DataEncoder, config SimConfig) (*FixedStepSimulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FixedStepSimulator{
		config:     config,
		net:        net,
		encoder:    encoder,
		queue:      NewCancelableEventQueue(),
		spikeLog:   make(map[string][]float64),
		voltageLog: make(map[string][]VoltageSample),
	}, nil
}

// ApplyInputSpike injects an external spike at the given neuron
func (s *FixedStepSimulator) ApplyInputSpike(neuron Neuron, t float64) {
	s.logSpike(neuron, t)
	for _, syn := range neuron.OutSynapses() {
		s.queue.Push(NewSpikeHitEvent(t+syn.Delay, syn.Post, syn.Type, syn.Weight))
	}
}

// ApplyInputValue temporally encodes a value in [0,1] and injects the
// resulting spike pair at the given neuron
func (s *FixedStepSimulator) ApplyInputValue(value float64, neuron Neuron, t0 float64) error {
	offsets, err := s.encoder.EncodeValue(value)
	if err != nil {
		return err
	}
	for _, offset := range offsets {
		s.ApplyInputSpike(neuron, t0+offset)
	}
	return nil
}

// Simulate runs the network for the given amount of virtual time
func (s *FixedStepSimulator) Simulate(simulationTime float64) {
	dt := s.config.DT
	steps := int(simulationTime / dt)

	for _, neuron := range s.net.Neurons() {
		s.logVoltage(neuron, 0, neuron.V())
	}

	for i := 1; i < steps; i++ {
		t := float64(i) * dt

		// Deliver every synaptic event due by this step
		for {
			next := s.queue.Peek()
			if next == nil || next.Timestamp() > t {
				break
			}
			_, batch := s.queue.PopBatch()
			for _, event := range batch {
				hit, ok := event.(*SpikeHitEvent)
				if !ok {
					panic(fmt.Sprintf("BUG: unexpected event type in fixed-step queue: %T", event))
				}
				hit.Target().(*ExplicitNeuron).applyWeight(hit.SynapseType(), hit.Weight())
			}
		}

		for _, neuron := range s.net.Neurons() {
			v, spiked := neuron.UpdateAndSpike(dt)
			s.logVoltage(neuron, t, v)
			if spiked {
				s.logSpike(neuron, t)
				neuron.Reset()
				for _, syn := range neuron.OutSynapses() {
					s.queue.Push(NewSpikeHitEvent(t+syn.Delay, syn.Post, syn.Type, syn.Weight))
				}
			}
		}
	}
}

func (s *FixedStepSimulator) logSpike(neuron Neuron, t float64) {
	s.spikeLog[neuron.UID()] = append(s.spikeLog[neuron.UID()], t)
}

func (s *FixedStepSimulator) logVoltage(neuron Neuron, t, v float64) {
	if !s.config.RecordVoltages {
		return
	}
	s.voltageLog[neuron.UID()] = append(s.voltageLog[neuron.UID()],
		VoltageSample{Time: t, V: v})
}

// SpikeLog returns the per-neuron record of spike times
func (s *FixedStepSimulator) SpikeLog() map[string][]float64 {
	return s.spikeLog
}

// Spikes returns the recorded spike times for one neuron
func (s *FixedStepSimulator) Spikes(neuron Neuron) []float64 {
	return s.spikeLog[neuron.UID()]
}

// VoltageLog returns the per-neuron voltage traces
func (s *FixedStepSimulator) VoltageLog() map[string][]VoltageSample {
	return s.voltageLog
}
