package production

import (
	"testing"
	"time"
)

func TestDailyEfficiencySeries(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)
	records := []ProductionRecord{
		{Timestamp: d2.Add(9 * time.Hour), ProductionMinutes: 50, DowntimeMinutes: 50, ProductionKg: 10},
		{Timestamp: d1.Add(9 * time.Hour), ProductionMinutes: 90, DowntimeMinutes: 10, ProductionKg: 10},
		{Timestamp: d1.Add(23*time.Hour + 59*time.Minute), ProductionMinutes: 90, DowntimeMinutes: 10, ProductionKg: 10},
		{Timestamp: d3.Add(time.Hour), ProductionMinutes: 0, DowntimeMinutes: 60, ProductionKg: 0},
	}

	series := DailyEfficiencySeries(records)
	if len(series) != 2 {
		t.Fatalf("expected 2 days, got %d: %+v", len(series), series)
	}
	if !series[0].Date.Equal(d1) || series[0].Value != 90 {
		t.Fatalf("unexpected first point %+v", series[0])
	}
	if !series[1].Date.Equal(d2) || series[1].Value != 50 {
		t.Fatalf("unexpected second point %+v", series[1])
	}
}

func TestDailyWaterSeries(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []ProductionRecord{
		{Timestamp: d1.Add(time.Hour), WaterM3: 1.5, ProductionKg: 10},
		{Timestamp: d1.Add(2 * time.Hour), WaterM3: 0.5, ProductionKg: 10},
		{Timestamp: d1.Add(3 * time.Hour), WaterM3: 9, ProductionKg: 0},
		{Timestamp: d1.AddDate(0, 0, 1), WaterM3: 2, ProductionKg: 5},
	}
	series := DailyWaterSeries(records)
	if len(series) != 2 {
		t.Fatalf("expected 2 days, got %d", len(series))
	}
	if series[0].Value != 2000 || series[1].Value != 2000 {
		t.Fatalf("unexpected water series %+v", series)
	}
	if len(DailyWaterSeries(nil)) != 0 {
		t.Fatalf("expected empty series")
	}
}

func TestDailySeriesUsesDeliveredCalendarDay(t *testing.T) {
	plant := time.FixedZone("BRT", -3*3600)
	// 22:30 local is already the next day in UTC; bucketing must not convert.
	late := time.Date(2024, 3, 1, 22, 30, 0, 0, plant)
	series := DailyWaterSeries([]ProductionRecord{{Timestamp: late, WaterM3: 1, ProductionKg: 1}})
	if len(series) != 1 {
		t.Fatalf("expected one point")
	}
	if series[0].Date.Day() != 1 || series[0].Date.Location() != plant {
		t.Fatalf("expected local day 1, got %s", series[0].Date)
	}
}

func TestDailyChemicalSeries(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	chems := []ChemicalRecord{
		{Timestamp: d1.Add(time.Hour), Channels: [ChemicalChannels]float64{100, 40}},
		{Timestamp: d1.AddDate(0, 0, 1), Channels: [ChemicalChannels]float64{10}},
	}
	records := []ProductionRecord{
		{Timestamp: d1.Add(2 * time.Hour), ProductionKg: 50},
	}
	series := DailyChemicalSeries(chems, records)
	if len(series) != 2 {
		t.Fatalf("expected 2 days, got %d", len(series))
	}
	if series[0].PerKg[0] == nil || *series[0].PerKg[0] != 2 || series[0].TotalMl != 140 {
		t.Fatalf("unexpected first day %+v", series[0])
	}
	if series[1].PerKg[0] != nil {
		t.Fatalf("expected no data for a day without production")
	}
}

func TestDailyWaterChemicalsMergesBothDatasets(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	records := []ProductionRecord{
		{Timestamp: d1.Add(time.Hour), WaterM3: 1, ProductionKg: 100},
		{Timestamp: d1.Add(2 * time.Hour), WaterM3: 1, ProductionKg: 100},
	}
	chems := []ChemicalRecord{
		{Timestamp: d1, Channels: [ChemicalChannels]float64{100, 100}},
		{Timestamp: d2, Channels: [ChemicalChannels]float64{50}},
	}
	days := DailyWaterChemicals(records, chems)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	first := days[0]
	if first.Cycles != 2 || first.WaterLiters != 2000 || first.ChemicalsMl != 200 {
		t.Fatalf("unexpected first day %+v", first)
	}
	if first.WaterPerKg == nil || *first.WaterPerKg != 10 || *first.ChemicalsPerKg != 1 {
		t.Fatalf("unexpected first day rates %+v", first)
	}
	second := days[1]
	if !second.Date.Equal(d2) || second.Cycles != 0 || second.WaterPerKg != nil || second.ChemicalsPerKg != nil {
		t.Fatalf("unexpected chemical-only day %+v", second)
	}
}
