package simulator

// Metrics tracks counters accumulated while the engine drains the queue.
// All fields describe the run so far; a snapshot is safe to hand out via
// Clone while the engine keeps mutating the original.
type Metrics struct {
	VirtualTime float64 `json:"virtualTime"` // Timestamp of the last processed batch

	// Event accounting
	EventsProcessed  uint64 `json:"eventsProcessed"`  // Total events popped and applied
	SpikeHits        uint64 `json:"spikeHits"`        // Synaptic arrivals applied
	Resets           uint64 `json:"resets"`           // Threshold crossings fired
	BatchesProcessed uint64 `json:"batchesProcessed"` // Minimum-time batches drained
	EventsCanceled   uint64 `json:"eventsCanceled"`   // Provisional events invalidated before firing

	// Prediction accounting
	Predictions       uint64            `json:"predictions"`       // Predictor invocations
	HorizonExceeded   uint64            `json:"horizonExceeded"`   // Predictions with no crossing in the horizon
	ProvisionalEvents uint64            `json:"provisionalEvents"` // Events scheduled speculatively
	QueueLength       int               `json:"queueLength"`       // Pending events right now
	QueueHighWater    int               `json:"queueHighWater"`    // Peak pending events seen
	TotalSpikes       uint64            `json:"totalSpikes"`       // Spikes recorded across all neurons
	SpikesPerNeuron   map[string]uint64 `json:"spikesPerNeuron"`
}

// NewMetrics creates a zeroed metrics accumulator
func NewMetrics() *Metrics {
	return &Metrics{
		SpikesPerNeuron: make(map[string]uint64),
	}
}

// Clone returns a deep copy safe for concurrent readers (e.g. the server's
// update loop serializing a snapshot while the engine runs)
func (m *Metrics) Clone() *Metrics {
	clone := *m
	clone.SpikesPerNeuron = make(map[string]uint64, len(m.SpikesPerNeuron))
	for uid, count := range m.SpikesPerNeuron {
		clone.SpikesPerNeuron[uid] = count
	}
	return &clone
}

func (m *Metrics) recordSpike(uid string) {
	m.TotalSpikes++
	m.SpikesPerNeuron[uid]++
}

func (m *Metrics) observeQueue(length int) {
	m.QueueLength = length
	if length > m.QueueHighWater {
		m.QueueHighWater = length
	}
}
