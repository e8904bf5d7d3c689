package production

import (
	"sort"
	"time"
)

// Point is one value of a daily series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ChemicalPoint holds the per-kilogram dosing of one day, per channel.
type ChemicalPoint struct {
	Date    time.Time  `json:"date"`
	PerKg   []*float64 `json:"per_kg"`
	TotalMl float64    `json:"total_ml"`
}

// DailyConsumption is the day-level water and chemical view used by
// reports. Days present in either dataset appear once.
type DailyConsumption struct {
	Date           time.Time `json:"date"`
	ProductionKg   float64   `json:"production_kg"`
	Cycles         int       `json:"cycles"`
	WaterLiters    float64   `json:"water_liters"`
	ChemicalsMl    float64   `json:"chemicals_ml"`
	WaterPerKg     *float64  `json:"water_per_kg"`
	ChemicalsPerKg *float64  `json:"chemicals_per_kg"`
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{year: y, month: m, day: d}
}

func (k dayKey) before(o dayKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	if k.month != o.month {
		return k.month < o.month
	}
	return k.day < o.day
}

// dayBuckets groups items by the calendar day of their timestamp, in the
// timestamp's own location. Keys come back in ascending date order.
type dayBuckets[T any] struct {
	keys  []dayKey
	dates map[dayKey]time.Time
	items map[dayKey][]T
}

func bucketByDay[T any](items []T, stamp func(T) time.Time) dayBuckets[T] {
	b := dayBuckets[T]{
		dates: make(map[dayKey]time.Time),
		items: make(map[dayKey][]T),
	}
	for _, item := range items {
		ts := stamp(item)
		k := keyOf(ts)
		if _, ok := b.dates[k]; !ok {
			y, m, d := ts.Date()
			b.dates[k] = time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
			b.keys = append(b.keys, k)
		}
		b.items[k] = append(b.items[k], item)
	}
	sort.Slice(b.keys, func(i, j int) bool { return b.keys[i].before(b.keys[j]) })
	return b
}

// DailyEfficiencySeries returns efficiency per calendar day, ascending.
// Days without productive records are omitted.
func DailyEfficiencySeries(records []ProductionRecord) []Point {
	b := bucketByDay(records, func(r ProductionRecord) time.Time { return r.Timestamp })
	series := make([]Point, 0, len(b.keys))
	for _, k := range b.keys {
		productive := false
		for _, r := range b.items[k] {
			if r.Productive() {
				productive = true
				break
			}
		}
		if !productive {
			continue
		}
		series = append(series, Point{Date: b.dates[k], Value: EfficiencyPercent(b.items[k])})
	}
	return series
}

// DailyWaterSeries returns liters of water per calendar day, ascending,
// over productive records.
func DailyWaterSeries(records []ProductionRecord) []Point {
	b := bucketByDay(records, func(r ProductionRecord) time.Time { return r.Timestamp })
	series := make([]Point, 0, len(b.keys))
	for _, k := range b.keys {
		var waterM3 float64
		productive := false
		for _, r := range b.items[k] {
			if !r.Productive() {
				continue
			}
			productive = true
			waterM3 += r.WaterM3
		}
		if !productive {
			continue
		}
		series = append(series, Point{Date: b.dates[k], Value: waterM3 * litersPerCubicMeter})
	}
	return series
}

// DailyChemicalSeries returns per-channel dosing per kilogram for each day
// that has chemical rows. The divisor is that day's productive kilograms.
func DailyChemicalSeries(chemicals []ChemicalRecord, records []ProductionRecord) []ChemicalPoint {
	kgByDay := make(map[dayKey]float64)
	for _, r := range records {
		if r.Productive() {
			kgByDay[keyOf(r.Timestamp)] += r.ProductionKg
		}
	}
	b := bucketByDay(chemicals, func(r ChemicalRecord) time.Time { return r.Timestamp })
	series := make([]ChemicalPoint, 0, len(b.keys))
	for _, k := range b.keys {
		rows := b.items[k]
		series = append(series, ChemicalPoint{
			Date:    b.dates[k],
			PerKg:   ChemicalsPerKg(rows, kgByDay[k]),
			TotalMl: ChemicalsTotal(rows),
		})
	}
	return series
}

// DailyWaterChemicals merges production and chemical rows per day.
// Production contributes every row of the day, productive or not.
func DailyWaterChemicals(records []ProductionRecord, chemicals []ChemicalRecord) []DailyConsumption {
	byDay := make(map[dayKey]*DailyConsumption)
	var keys []dayKey
	entry := func(ts time.Time) *DailyConsumption {
		k := keyOf(ts)
		if row, ok := byDay[k]; ok {
			return row
		}
		row := &DailyConsumption{Date: time.Date(k.year, k.month, k.day, 0, 0, 0, 0, ts.Location())}
		byDay[k] = row
		keys = append(keys, k)
		return row
	}

	for _, r := range records {
		row := entry(r.Timestamp)
		row.ProductionKg += r.ProductionKg
		row.WaterLiters += r.WaterM3 * litersPerCubicMeter
		row.Cycles++
	}
	for _, c := range chemicals {
		row := entry(c.Timestamp)
		row.ChemicalsMl += c.Total()
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	out := make([]DailyConsumption, 0, len(keys))
	for _, k := range keys {
		row := byDay[k]
		row.WaterPerKg = perKg(row.WaterLiters, row.ProductionKg)
		row.ChemicalsPerKg = perKg(row.ChemicalsMl, row.ProductionKg)
		out = append(out, *row)
	}
	return out
}
