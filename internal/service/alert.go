package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/model"
	"github.com/iliyamo/maternal-vitals/internal/repository"
)

// Rule names stored in alert_violations.rule.
const (
	RuleHeartRate   = "heart_rate"
	RuleSpO2        = "spo2"
	RuleTemperature = "temperature"
)

// AlertEngine classifies readings against AlertThresholds and owns the
// alert lifecycle (UNREAD -> READ).
type AlertEngine struct {
	alerts      *repository.AlertRepo
	assignments *AssignmentDirectory
	limits      AlertLimits
}

func NewAlertEngine(alerts *repository.AlertRepo, assignments *AssignmentDirectory) *AlertEngine {
	return &AlertEngine{alerts: alerts, assignments: assignments, limits: AlertThresholds}
}

// Evaluate returns the violated rules for r in heart rate, SpO2,
// temperature order.  An empty result means the reading is normal.
func (e *AlertEngine) Evaluate(r model.Reading) []model.Violation {
	l := e.limits
	var out []model.Violation
	if r.HeartRate < l.HeartRateLow || r.HeartRate > l.HeartRateHigh {
		out = append(out, model.Violation{
			Rule: RuleHeartRate, Value: r.HeartRate,
			Message: fmt.Sprintf("Heart rate abnormal (%s bpm)", formatValue(r.HeartRate)),
		})
	}
	if r.SpO2 < l.SpO2Low {
		out = append(out, model.Violation{
			Rule: RuleSpO2, Value: r.SpO2,
			Message: fmt.Sprintf("Oxygen level low (%s%%)", formatValue(r.SpO2)),
		})
	}
	if r.Temperature < l.TempLow || r.Temperature > l.TempHigh {
		out = append(out, model.Violation{
			Rule: RuleTemperature, Value: r.Temperature,
			Message: fmt.Sprintf("Body temperature abnormal (%s°C)", formatValue(r.Temperature)),
		})
	}
	return out
}

// formatValue renders v in its shortest decimal form: 135 -> "135",
// 36.55 -> "36.55".
func formatValue(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// RaiseTx persists one UNREAD alert for r on q.  The alert value is the
// reading's heart rate regardless of which rule fired; the observed value
// of each rule is kept in the violation rows.
func (e *AlertEngine) RaiseTx(ctx context.Context, q database.Querier, r model.Reading, violations []model.Violation) (*model.Alert, error) {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	a := &model.Alert{
		PatientKey: r.PatientKey,
		Type:       model.AlertTypeAbnormalReading,
		Message:    strings.Join(msgs, "; "),
		Value:      r.HeartRate,
		RecordedAt: r.Timestamp,
		Status:     model.AlertUnread,
		Violations: violations,
	}
	if err := e.alerts.InsertTx(ctx, q, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Acknowledge marks an alert READ.  Acknowledging a READ alert is a no-op;
// an unknown id is ErrNotFound.
func (e *AlertEngine) Acknowledge(ctx context.Context, alertID uint64) error {
	a, err := e.alerts.GetByID(ctx, alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: alert %d", ErrNotFound, alertID)
	}
	if err != nil {
		return storageErr("get alert", err)
	}
	return e.markRead(ctx, a)
}

// AcknowledgeForDoctor is Acknowledge restricted to alerts of patients
// assigned to the calling doctor.  An alert of another doctor's patient is
// reported as ErrNotFound, the same as a missing one.
func (e *AlertEngine) AcknowledgeForDoctor(ctx context.Context, p Principal, alertID uint64) error {
	if !p.IsDoctor() {
		return ErrAuthorization
	}
	doctorKey, err := e.assignments.DoctorKey(ctx, p.AccountID)
	if err != nil {
		return err
	}
	a, err := e.alerts.GetByID(ctx, alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: alert %d", ErrNotFound, alertID)
	}
	if err != nil {
		return storageErr("get alert", err)
	}
	ok, err := e.assignments.IsAssigned(ctx, a.PatientKey, doctorKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: alert %d", ErrNotFound, alertID)
	}
	return e.markRead(ctx, a)
}

func (e *AlertEngine) markRead(ctx context.Context, a model.Alert) error {
	if a.Status == model.AlertRead {
		return nil
	}
	if _, err := e.alerts.MarkRead(ctx, a.ID); err != nil {
		return storageErr("mark alert read", err)
	}
	return nil
}
