package loader

import "github.com/Carmen-Shannon/oxy-volume/engine/volume"

// Status describes the bound volume and the most recent load.
type Status struct {
	// Volume is the bound volume, nil until the first load succeeds.
	Volume *volume.Info `json:"volume,omitempty"`
	// Source is the reference the bound volume was read from.
	Source string `json:"source,omitempty"`
	// Generation is the generation of the bound volume.
	Generation uint64 `json:"generation"`
	// Pending is the generation of a load still in flight, 0 if none.
	Pending uint64 `json:"pending,omitempty"`
	// Progress is the transfer percentage of the pending load, -1 when unknown.
	Progress float64 `json:"progress"`
	// LastError is the message of the most recent failed load.
	LastError string `json:"last_error,omitempty"`
}
