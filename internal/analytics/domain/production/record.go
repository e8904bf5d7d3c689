package production

import (
	"errors"
	"time"
)

// ChemicalChannels is the number of dosing channels recorded per chemical row.
const ChemicalChannels = 9

// ErrInvalidChannel is returned for chemical channels outside 1..ChemicalChannels.
var ErrInvalidChannel = errors.New("production: invalid chemical channel")

// ProductionRecord is one consolidated production row.
type ProductionRecord struct {
	Timestamp         time.Time `json:"timestamp"`
	DowntimeMinutes   float64   `json:"downtime_minutes"`
	ProductionMinutes float64   `json:"production_minutes"`
	WaterM3           float64   `json:"water_m3"`
	ProductionKg      float64   `json:"production_kg"`
	ClientID          int       `json:"client_id"`
}

// Productive reports whether the record counts toward efficiency views.
func (r ProductionRecord) Productive() bool { return r.ProductionKg > 0 }

// LoadRecord is one washer load.
type LoadRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	ProgramID    int       `json:"program_id"`
	ClientID     int       `json:"client_id"`
	LoadWeightKg float64   `json:"load_weight_kg"`
	WaterM3      float64   `json:"water_m3"`
}

// ChemicalRecord holds dosed volumes in milliliters per channel.
type ChemicalRecord struct {
	Timestamp time.Time                 `json:"timestamp"`
	Channels  [ChemicalChannels]float64 `json:"channels"`
}

// Channel returns the volume of a 1-based channel.
func (r ChemicalRecord) Channel(channel int) (float64, error) {
	if channel < 1 || channel > ChemicalChannels {
		return 0, ErrInvalidChannel
	}
	return r.Channels[channel-1], nil
}

// Total returns the volume across all channels.
func (r ChemicalRecord) Total() float64 {
	var sum float64
	for _, v := range r.Channels {
		sum += v
	}
	return sum
}

// StatusSnapshot is a cumulative counter reading from the controller.
type StatusSnapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	WaterM3      float64   `json:"water_m3"`
	Batches      int64     `json:"batches"`
	ProductionKg float64   `json:"production_kg"`
	ClientID     int       `json:"client_id"`
}
