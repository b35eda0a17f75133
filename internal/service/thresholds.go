package service

import "github.com/iliyamo/maternal-vitals/internal/model"

// Three threshold sets are in use and they do not agree.  AlertLimits
// decide whether an alert is persisted; DisplayLimits colour the latest
// reading; RosterLimits flag a row on the doctor's patient list.  A
// reading of 95% SpO2 or 37.6°C is normal for alerting but not for the
// other two.  Keep all three here so any change is made side by side.

// AlertLimits bounds are strict: a value equal to a bound is normal.
type AlertLimits struct {
	HeartRateLow  float64
	HeartRateHigh float64
	SpO2Low       float64
	TempLow       float64
	TempHigh      float64
}

// DisplayLimits: heart rate outside [Low, High] is abnormal, SpO2 below
// SpO2Low is low, temperature at or above FeverAt is high.
type DisplayLimits struct {
	HeartRateLow  float64
	HeartRateHigh float64
	SpO2Low       float64
	FeverAt       float64
}

// RosterLimits flag a patient row when heart rate exceeds HeartRateHigh or
// SpO2 drops below SpO2Low.
type RosterLimits struct {
	HeartRateHigh float64
	SpO2Low       float64
}

var (
	AlertThresholds   = AlertLimits{HeartRateLow: 50, HeartRateHigh: 120, SpO2Low: 94, TempLow: 35.5, TempHigh: 37.5}
	DisplayThresholds = DisplayLimits{HeartRateLow: 50, HeartRateHigh: 120, SpO2Low: 95, FeverAt: 37.8}
	RosterThresholds  = RosterLimits{HeartRateHigh: 100, SpO2Low: 95}
)

// VitalsStatus is the per-vital display classification of one reading.
type VitalsStatus struct {
	HeartRate   string `json:"heart_rate"`  // normal | abnormal
	SpO2        string `json:"spo2"`        // normal | low
	Temperature string `json:"temperature"` // normal | high
}

// Classify applies the display limits to r.
func (l DisplayLimits) Classify(r model.Reading) VitalsStatus {
	s := VitalsStatus{HeartRate: "normal", SpO2: "normal", Temperature: "normal"}
	if r.HeartRate < l.HeartRateLow || r.HeartRate > l.HeartRateHigh {
		s.HeartRate = "abnormal"
	}
	if r.SpO2 < l.SpO2Low {
		s.SpO2 = "low"
	}
	if r.Temperature >= l.FeverAt {
		s.Temperature = "high"
	}
	return s
}

// Flag reports whether a roster row for r should be highlighted.
func (l RosterLimits) Flag(r model.Reading) bool {
	return r.HeartRate > l.HeartRateHigh || r.SpO2 < l.SpO2Low
}
