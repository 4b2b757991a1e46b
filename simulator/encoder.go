package simulator

import "fmt"

// DataEncoder maps scalar values in [0,1] to inter-spike intervals and back
// (temporal coding). A value v is encoded as a pair of spikes Tmin+v*Tcod
// apart; Tmin keeps zero distinguishable from "no spikes".
type DataEncoder struct {
	Tmin float64 `json:"tmin" yaml:"tmin"` // Interval encoding value 0, in virtual ms
	Tcod float64 `json:"tcod" yaml:"tcod"` // Additional interval per unit of value
}

// NewDataEncoder returns an encoder with the standard STICK coding constants
func NewDataEncoder() DataEncoder {
	return DataEncoder{Tmin: 10.0, Tcod: 100.0}
}

// EncodeValue maps a value in [0,1] to the two spike-time offsets [0, interval]
func (e DataEncoder) EncodeValue(value float64) ([2]float64, error) {
	if value < 0 || value > 1 {
		return [2]float64{}, SimError{Message: fmt.Sprintf("encoder value out of range [0,1]: %g", value)}
	}
	return [2]float64{0, e.Tmin + value*e.Tcod}, nil
}

// DecodeInterval maps an inter-spike interval back to the encoded value
func (e DataEncoder) DecodeInterval(interval float64) float64 {
	return (interval - e.Tmin) / e.Tcod
}
