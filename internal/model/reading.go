package model

import (
    "math"
    "time"
)

// Reading is one vital-sign sample stored in the `readings` table.  Rows are
// append-only: once inserted they are never updated or deleted.
type Reading struct {
    ID          uint64    // readings.reading_id
    PatientKey  uint64    // readings.patient_fk
    HeartRate   float64   // readings.heart_rate (bpm)
    SpO2        float64   // readings.spo2 (%)
    Temperature float64   // readings.temperature (°C)
    AccelX      float64   // readings.acc_ax
    AccelY      float64   // readings.acc_ay
    AccelZ      float64   // readings.acc_az
    Timestamp   time.Time // readings.timestamp (UTC)
}

// AccelMagnitude is the Euclidean norm of the acceleration vector.
func (r Reading) AccelMagnitude() float64 {
    return math.Sqrt(r.AccelX*r.AccelX + r.AccelY*r.AccelY + r.AccelZ*r.AccelZ)
}

// TimestampLayout is the raw DATETIME rendering used for chart labels and
// history rows.
const TimestampLayout = "2006-01-02 15:04:05"
