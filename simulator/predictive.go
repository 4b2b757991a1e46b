package simulator

import "fmt"

// VoltageSample is one recorded membrane-potential update
type VoltageSample struct {
	Time float64 `json:"time"`
	V    float64 `json:"v"`
}

// PredictiveSimulator is an event-driven simulation engine that advances
// neuron state without a fixed time step. Every synaptic arrival triggers an
// analytic prediction of the target's next threshold crossing; the predicted
// reset and its downstream synaptic hits are scheduled speculatively and
// canceled if an earlier arrival invalidates the prediction.
//
// The engine is a PURE single-threaded state machine: all mutable state
// (queue, lineages, neuron state, logs) is owned exclusively by the instance
// running the loop. The caller manages pacing and threading.
type PredictiveSimulator struct {
	config  SimConfig
	net     *Network
	encoder DataEncoder
	queue   *CancelableEventQueue
	metrics *Metrics

	// provisional maps a neuron uid to the event identities scheduled from
	// its most recent prediction (reset + downstream hits). At most one
	// lineage per neuron exists at any instant; a new prediction replaces
	// the previous lineage only after the old one has been canceled.
	provisional map[string][]EventID

	spikeLog   map[string][]float64
	voltageLog map[string][]VoltageSample

	lastBatchTime float64
	started       bool

	// Event logging callback (optional, for UI/debugging)
	LogEvent func(msg string)
}

// NewPredictiveSimulator creates an engine over a frozen network topology
func NewPredictiveSimulator(net *Network, encoder DataEncoder, config SimConfig) (*PredictiveSimulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sim := &PredictiveSimulator{
		config:      config,
		net:         net,
		encoder:     encoder,
		queue:       NewCancelableEventQueue(),
		metrics:     NewMetrics(),
		provisional: make(map[string][]EventID),
		spikeLog:    make(map[string][]float64),
		voltageLog:  make(map[string][]VoltageSample),
	}
	for _, neuron := range net.Neurons() {
		sim.spikeLog[neuron.UID()] = nil
		sim.voltageLog[neuron.UID()] = nil
		sim.provisional[neuron.UID()] = nil
	}
	return sim, nil
}

// ApplyInputSpike injects an external spike at the given neuron: one
// SpikeHitEvent per outgoing synapse, delayed by each synapse's propagation
// time. Predictions are untouched here; the targets re-predict when the
// hits are processed.
func (s *PredictiveSimulator) ApplyInputSpike(neuron Neuron, t float64) {
	for _, syn := range neuron.OutSynapses() {
		s.queue.Push(NewSpikeHitEvent(t+syn.Delay, syn.Post, syn.Type, syn.Weight))
	}
	s.metrics.observeQueue(s.queue.Len())
}

// ApplyInputValue temporally encodes a value in [0,1] as a spike pair and
// injects both spikes at the given neuron
func (s *PredictiveSimulator) ApplyInputValue(value float64, neuron Neuron, t0 float64) error {
	offsets, err := s.encoder.EncodeValue(value)
	if err != nil {
		return err
	}
	for _, offset := range offsets {
		s.ApplyInputSpike(neuron, t0+offset)
	}
	return nil
}

// Run drains the queue to completion
func (s *PredictiveSimulator) Run() {
	for s.Step() {
	}
}

// Step processes exactly one minimum-time batch of events. Returns false
// once the queue is empty or the processed-event cap is reached.
func (s *PredictiveSimulator) Step() bool {
	if s.config.MaxProcessedEvents > 0 && s.metrics.EventsProcessed >= s.config.MaxProcessedEvents {
		return false
	}

	batchTime, batch := s.queue.PopBatch()
	if len(batch) == 0 {
		return false
	}

	// Virtual time must never go backwards. Equal timestamps are possible:
	// an immediate crossing (predicted delta 0) schedules a reset at the
	// time of the batch that caused it, which lands in the next batch.
	if s.started && batchTime < s.lastBatchTime {
		panic(fmt.Sprintf("BUG: batch time went backwards: %.6f after %.6f", batchTime, s.lastBatchTime))
	}
	s.started = true
	s.lastBatchTime = batchTime
	s.metrics.VirtualTime = batchTime
	s.metrics.BatchesProcessed++

	// Partition the batch: resets apply before hits, so a neuron that just
	// crossed threshold is back at rest before receiving same-instant input.
	var resets []*NeuronResetEvent
	var hits []*SpikeHitEvent
	for _, event := range batch {
		switch e := event.(type) {
		case *NeuronResetEvent:
			resets = append(resets, e)
		case *SpikeHitEvent:
			hits = append(hits, e)
		default:
			panic(fmt.Sprintf("BUG: unknown event type: %T", e))
		}
	}

	for _, event := range resets {
		s.processReset(event)
	}
	for _, event := range hits {
		s.processHit(event)
	}

	s.metrics.EventsCanceled = s.queue.Canceled()
	s.metrics.observeQueue(s.queue.Len())
	return true
}

// processReset fires a predicted threshold crossing: the prediction is now
// realized, so its lineage is confirmed (the downstream hits stay queued as
// actual consequences of an actual spike) and the neuron returns to rest.
func (s *PredictiveSimulator) processReset(event *NeuronResetEvent) {
	neuron := event.Target()
	s.provisional[neuron.UID()] = nil

	s.logSpike(neuron, event.Timestamp())
	if n, ok := neuron.(*ExplicitNeuron); ok {
		n.markReset(event.Timestamp())
	} else {
		neuron.Reset()
	}
	s.metrics.EventsProcessed++
	s.metrics.Resets++
	s.logEvent("[t=%.3f] RESET %s", event.Timestamp(), neuron.UID())
}

// processHit applies a synaptic arrival. Any prediction made for the target
// before this hit was known is stale the instant the hit arrives, so the
// target's entire outstanding lineage is rolled back before the state
// update and re-prediction.
func (s *PredictiveSimulator) processHit(event *SpikeHitEvent) {
	neuron := event.Target()
	s.cancelLineage(neuron)

	neuron.ReceiveSynapticEvent(event.SynapseType(), event.Weight(), event.Timestamp())
	s.logVoltage(neuron, event.Timestamp())
	s.metrics.EventsProcessed++
	s.metrics.SpikeHits++

	// Several hits in one batch targeting the same neuron re-run the
	// predictor once per hit. Each invocation starts from the already
	// updated state, so the result stays correct; the repeat work is an
	// accepted trade-off inherited from the reference model.
	s.metrics.Predictions++
	delta, ok := PredictSpikeTime(neuron, s.config.DT, s.config.MaxPredictionSteps)
	if !ok {
		// No crossing within the horizon: the neuron simply will not fire
		// again under its current trajectory. Not an error.
		s.metrics.HorizonExceeded++
		return
	}

	spikeTime := event.Timestamp() + delta
	lineage := make([]EventID, 0, 1+len(neuron.OutSynapses()))
	lineage = append(lineage, s.queue.Push(NewNeuronResetEvent(spikeTime, neuron)))
	for _, syn := range neuron.OutSynapses() {
		lineage = append(lineage, s.queue.Push(NewSpikeHitEvent(spikeTime+syn.Delay, syn.Post, syn.Type, syn.Weight)))
	}
	s.provisional[neuron.UID()] = lineage
	s.metrics.ProvisionalEvents += uint64(len(lineage))
	s.logEvent("[t=%.3f] PREDICT %s fires at t=%.3f (%d provisional events)",
		event.Timestamp(), neuron.UID(), spikeTime, len(lineage))
}

// cancelLineage removes every still-pending event of the neuron's current
// prediction lineage from the queue. Events of the lineage that already
// fired are silently skipped.
func (s *PredictiveSimulator) cancelLineage(neuron Neuron) {
	uid := neuron.UID()
	for _, id := range s.provisional[uid] {
		s.queue.Remove(id)
	}
	s.provisional[uid] = nil
}

func (s *PredictiveSimulator) logSpike(neuron Neuron, t float64) {
	s.spikeLog[neuron.UID()] = append(s.spikeLog[neuron.UID()], t)
	s.metrics.recordSpike(neuron.UID())
}

func (s *PredictiveSimulator) logVoltage(neuron Neuron, t float64) {
	if !s.config.RecordVoltages {
		return
	}
	s.voltageLog[neuron.UID()] = append(s.voltageLog[neuron.UID()],
		VoltageSample{Time: t, V: neuron.V()})
}

func (s *PredictiveSimulator) logEvent(format string, args ...interface{}) {
	if s.LogEvent != nil {
		s.LogEvent(fmt.Sprintf(format, args...))
	}
}

// VirtualTime returns the timestamp of the last processed batch
func (s *PredictiveSimulator) VirtualTime() float64 {
	return s.lastBatchTime
}

// PendingEvents returns the number of events still queued
func (s *PredictiveSimulator) PendingEvents() int {
	return s.queue.Len()
}

// HasPendingLineage reports whether the neuron currently has an outstanding
// prediction lineage
func (s *PredictiveSimulator) HasPendingLineage(neuron Neuron) bool {
	return len(s.provisional[neuron.UID()]) > 0
}

// SpikeLog returns the per-neuron record of actually-fired spike times
func (s *PredictiveSimulator) SpikeLog() map[string][]float64 {
	return s.spikeLog
}

// Spikes returns the recorded spike times for one neuron
func (s *PredictiveSimulator) Spikes(neuron Neuron) []float64 {
	return s.spikeLog[neuron.UID()]
}

// VoltageLog returns the per-neuron record of applied voltage updates
func (s *PredictiveSimulator) VoltageLog() map[string][]VoltageSample {
	return s.voltageLog
}

// Metrics returns a snapshot of the run counters
func (s *PredictiveSimulator) Metrics() *Metrics {
	return s.metrics.Clone()
}

// Config returns a copy of the engine configuration
func (s *PredictiveSimulator) Config() SimConfig {
	return s.config
}

// Network returns the simulated network
func (s *PredictiveSimulator) Network() *Network {
	return s.net
}
