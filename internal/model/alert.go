package model

import (
    "strings"
    "time"
)

// AlertStatus is the lifecycle state of an alert.  The only permitted
// transition is UNREAD -> READ.
type AlertStatus string

const (
    AlertUnread AlertStatus = "UNREAD"
    AlertRead   AlertStatus = "READ"
)

// ParseAlertStatus accepts UNREAD or READ in any case.
func ParseAlertStatus(s string) (AlertStatus, bool) {
    switch AlertStatus(strings.ToUpper(strings.TrimSpace(s))) {
    case AlertUnread:
        return AlertUnread, true
    case AlertRead:
        return AlertRead, true
    }
    return "", false
}

// AlertTypeAbnormalReading is the alert_type written for threshold alerts.
const AlertTypeAbnormalReading = "Abnormal Reading"

// Alert is a row of the `alerts` table.  Value always holds the reading's
// heart rate whichever rule fired; the per-rule observed values live in
// Violations (alert_violations rows).
type Alert struct {
    ID         uint64      // alerts.alert_id
    PatientKey uint64      // alerts.patient_fk
    Type       string      // alerts.alert_type
    Message    string      // alerts.alert_message
    Value      float64     // alerts.value
    RecordedAt time.Time   // alerts.recorded_at
    Status     AlertStatus // alerts.status
    Violations []Violation
}

// Violation records one threshold rule that fired for a reading.
type Violation struct {
    Rule    string  `json:"rule"`    // heart_rate | spo2 | temperature
    Value   float64 `json:"value"`   // observed value
    Message string  `json:"message"` // human readable text used in the alert message
}
