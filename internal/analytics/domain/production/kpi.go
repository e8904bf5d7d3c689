package production

import (
	"math"
	"time"
)

const litersPerCubicMeter = 1000

// EfficiencyPercent returns production time over total time for productive
// records, as a percentage rounded to two decimals. It is 0 when there is
// no time to divide by.
func EfficiencyPercent(records []ProductionRecord) float64 {
	var productionMinutes, downtimeMinutes float64
	for _, r := range records {
		if !r.Productive() {
			continue
		}
		productionMinutes += r.ProductionMinutes
		downtimeMinutes += r.DowntimeMinutes
	}
	return efficiency(productionMinutes, downtimeMinutes)
}

func efficiency(productionMinutes, downtimeMinutes float64) float64 {
	total := productionMinutes + downtimeMinutes
	if total <= 0 {
		return 0
	}
	value := round(100*productionMinutes/total, 2)
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// WaterPerKg returns liters of water per produced kilogram.
// A nil result means no production in the window.
func WaterPerKg(records []ProductionRecord) *float64 {
	var waterM3, kg float64
	for _, r := range records {
		waterM3 += r.WaterM3
		kg += r.ProductionKg
	}
	return perKg(waterM3*litersPerCubicMeter, kg)
}

// ChemicalPerKg returns milliliters of one channel per produced kilogram.
func ChemicalPerKg(records []ChemicalRecord, productionKg float64, channel int) (*float64, error) {
	if channel < 1 || channel > ChemicalChannels {
		return nil, ErrInvalidChannel
	}
	var ml float64
	for _, r := range records {
		ml += r.Channels[channel-1]
	}
	return perKg(ml, productionKg), nil
}

// ChemicalsPerKg returns the per-kilogram rate for every channel, in
// channel order.
func ChemicalsPerKg(records []ChemicalRecord, productionKg float64) []*float64 {
	var totals [ChemicalChannels]float64
	for _, r := range records {
		for i, v := range r.Channels {
			totals[i] += v
		}
	}
	rates := make([]*float64, ChemicalChannels)
	for i, ml := range totals {
		rates[i] = perKg(ml, productionKg)
	}
	return rates
}

// ChemicalsTotal returns the volume across all records and channels.
func ChemicalsTotal(records []ChemicalRecord) float64 {
	var ml float64
	for _, r := range records {
		ml += r.Total()
	}
	return ml
}

// PeriodSummary is the headline block for a selected period.
type PeriodSummary struct {
	ProductionKg      float64    `json:"production_kg"`
	Cycles            int        `json:"cycles"`
	WaterLiters       float64    `json:"water_liters"`
	WaterPerKg        *float64   `json:"water_per_kg"`
	AverageWeightKg   *float64   `json:"average_weight_kg"`
	ChemicalsMl       float64    `json:"chemicals_ml"`
	ChemicalsPerKg    *float64   `json:"chemicals_per_kg"`
	ChemicalPerKg     []*float64 `json:"chemical_per_kg"`
	EfficiencyPercent float64    `json:"efficiency_percent"`
	Days              int        `json:"days"`
	DailyAverageKg    float64    `json:"daily_average_kg"`
}

// SummarizePeriod reduces production and chemical rows of one period.
// Only productive records contribute to production, water and cycles.
func SummarizePeriod(records []ProductionRecord, chemicals []ChemicalRecord, days int) PeriodSummary {
	productive := make([]ProductionRecord, 0, len(records))
	var kg, waterM3 float64
	for _, r := range records {
		if !r.Productive() {
			continue
		}
		productive = append(productive, r)
		kg += r.ProductionKg
		waterM3 += r.WaterM3
	}

	chemicalsMl := ChemicalsTotal(chemicals)
	summary := PeriodSummary{
		ProductionKg:      kg,
		Cycles:            len(productive),
		WaterLiters:       waterM3 * litersPerCubicMeter,
		WaterPerKg:        WaterPerKg(productive),
		AverageWeightKg:   perUnit(kg, float64(len(productive))),
		ChemicalsMl:       chemicalsMl,
		ChemicalsPerKg:    perKg(chemicalsMl, kg),
		ChemicalPerKg:     ChemicalsPerKg(chemicals, kg),
		EfficiencyPercent: EfficiencyPercent(productive),
		Days:              days,
	}
	if days > 0 {
		summary.DailyAverageKg = round(kg/float64(days), 0)
	}
	return summary
}

// StatusSummary is derived from the latest cumulative status snapshot.
type StatusSummary struct {
	At              time.Time `json:"at"`
	ProductionKg    float64   `json:"production_kg"`
	Batches         int64     `json:"batches"`
	WaterLiters     float64   `json:"water_liters"`
	AverageWeightKg *float64  `json:"average_weight_kg"`
	LitersPerKg     *float64  `json:"liters_per_kg"`
	ClientID        int       `json:"client_id"`
}

// LatestSnapshot returns the snapshot with the greatest timestamp.
func LatestSnapshot(snapshots []StatusSnapshot) (StatusSnapshot, bool) {
	var latest StatusSnapshot
	found := false
	for _, s := range snapshots {
		if !found || s.Timestamp.After(latest.Timestamp) {
			latest = s
			found = true
		}
	}
	return latest, found
}

// SummarizeStatus derives rates from a cumulative snapshot.
func SummarizeStatus(s StatusSnapshot) StatusSummary {
	liters := s.WaterM3 * litersPerCubicMeter
	return StatusSummary{
		At:              s.Timestamp,
		ProductionKg:    s.ProductionKg,
		Batches:         s.Batches,
		WaterLiters:     liters,
		AverageWeightKg: roundedPtr(perUnit(s.ProductionKg, float64(s.Batches)), 2),
		LitersPerKg:     roundedPtr(perKg(liters, s.ProductionKg), 2),
		ClientID:        s.ClientID,
	}
}

func perKg(amount, kg float64) *float64 {
	return perUnit(amount, kg)
}

func perUnit(amount, units float64) *float64 {
	if units <= 0 {
		return nil
	}
	value := amount / units
	return &value
}

func roundedPtr(value *float64, places int) *float64 {
	if value == nil {
		return nil
	}
	rounded := round(*value, places)
	return &rounded
}

func round(value float64, places int) float64 {
	pow := math.Pow10(places)
	return math.Round(value*pow) / pow
}
