// Package queue defines message payloads exchanged over the message broker.
package queue

// AlertRaisedQueue is the durable queue alert events are published to.
const AlertRaisedQueue = "alerts.raised"

// AlertRaisedEvent is published after an alert has been committed.  It
// carries enough information for downstream consumers to log or notify
// without querying the primary database.
type AlertRaisedEvent struct {
    AlertID      uint64           `json:"alert_id"`
    PatientID    string           `json:"patient_id"`
    AlertType    string           `json:"alert_type"`
    Message      string           `json:"message"`
    Value        float64          `json:"value"`
    Violations   []EventViolation `json:"violations"`
    SignalStatus string           `json:"signal_status"`
    RecordedAt   string           `json:"recorded_at"` // RFC 3339, UTC
}

// EventViolation is one threshold rule that fired.
type EventViolation struct {
    Rule  string  `json:"rule"`
    Value float64 `json:"value"`
}
