package production

import (
	"sort"
	"time"
)

// ClientProduction aggregates loads of one client.
type ClientProduction struct {
	ClientID      int     `json:"client_id"`
	Loads         int     `json:"loads"`
	TotalKg       float64 `json:"total_kg"`
	AverageLoadKg float64 `json:"average_load_kg"`
}

// ProgramProduction aggregates loads of one wash program.
type ProgramProduction struct {
	ProgramID     int     `json:"program_id"`
	Loads         int     `json:"loads"`
	TotalKg       float64 `json:"total_kg"`
	AverageLoadKg float64 `json:"average_load_kg"`
}

// DailyLoad is the number and weight of loads for one day.
type DailyLoad struct {
	Date    time.Time `json:"date"`
	Loads   int       `json:"loads"`
	TotalKg float64   `json:"total_kg"`
}

// LoadSummary is the headline view over a set of loads.
type LoadSummary struct {
	Loads         int      `json:"loads"`
	TotalKg       float64  `json:"total_kg"`
	WaterLiters   float64  `json:"water_liters"`
	LitersPerKg   *float64 `json:"liters_per_kg"`
	AverageLoadKg float64  `json:"average_load_kg"`
}

type loadTotals struct {
	loads        int
	totalKg      float64
	weighedLoads int
}

func (t *loadTotals) add(r LoadRecord) {
	t.loads++
	t.totalKg += r.LoadWeightKg
	if r.LoadWeightKg != 0 {
		t.weighedLoads++
	}
}

// averageLoad averages over non-zero weights only.
func (t loadTotals) averageLoad() float64 {
	if t.weighedLoads == 0 {
		return 0
	}
	return t.totalKg / float64(t.weighedLoads)
}

// ProductionByClient groups loads per client, heaviest first.
func ProductionByClient(loads []LoadRecord) []ClientProduction {
	totals := make(map[int]*loadTotals)
	for _, r := range loads {
		t, ok := totals[r.ClientID]
		if !ok {
			t = &loadTotals{}
			totals[r.ClientID] = t
		}
		t.add(r)
	}
	out := make([]ClientProduction, 0, len(totals))
	for id, t := range totals {
		out = append(out, ClientProduction{
			ClientID:      id,
			Loads:         t.loads,
			TotalKg:       t.totalKg,
			AverageLoadKg: t.averageLoad(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalKg != out[j].TotalKg {
			return out[i].TotalKg > out[j].TotalKg
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out
}

// ProductionByProgram groups loads per wash program, heaviest first.
func ProductionByProgram(loads []LoadRecord) []ProgramProduction {
	totals := make(map[int]*loadTotals)
	for _, r := range loads {
		t, ok := totals[r.ProgramID]
		if !ok {
			t = &loadTotals{}
			totals[r.ProgramID] = t
		}
		t.add(r)
	}
	out := make([]ProgramProduction, 0, len(totals))
	for id, t := range totals {
		out = append(out, ProgramProduction{
			ProgramID:     id,
			Loads:         t.loads,
			TotalKg:       t.totalKg,
			AverageLoadKg: t.averageLoad(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalKg != out[j].TotalKg {
			return out[i].TotalKg > out[j].TotalKg
		}
		return out[i].ProgramID < out[j].ProgramID
	})
	return out
}

// DailyLoads counts loads per calendar day, ascending.
func DailyLoads(loads []LoadRecord) []DailyLoad {
	b := bucketByDay(loads, func(r LoadRecord) time.Time { return r.Timestamp })
	out := make([]DailyLoad, 0, len(b.keys))
	for _, k := range b.keys {
		day := DailyLoad{Date: b.dates[k]}
		for _, r := range b.items[k] {
			day.Loads++
			day.TotalKg += r.LoadWeightKg
		}
		out = append(out, day)
	}
	return out
}

// SummarizeLoads reduces loads with a positive weight.
func SummarizeLoads(loads []LoadRecord) LoadSummary {
	var t loadTotals
	var waterM3 float64
	for _, r := range loads {
		if r.LoadWeightKg <= 0 {
			continue
		}
		t.add(r)
		waterM3 += r.WaterM3
	}
	liters := waterM3 * litersPerCubicMeter
	return LoadSummary{
		Loads:         t.loads,
		TotalKg:       t.totalKg,
		WaterLiters:   liters,
		LitersPerKg:   roundedPtr(perKg(liters, t.totalKg), 2),
		AverageLoadKg: round(t.averageLoad(), 1),
	}
}

// FilterByClient returns the loads of one client; clientID 0 keeps all.
func FilterByClient(loads []LoadRecord, clientID int) []LoadRecord {
	if clientID == 0 {
		return loads
	}
	out := make([]LoadRecord, 0, len(loads))
	for _, r := range loads {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out
}
