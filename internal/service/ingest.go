package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/model"
	"github.com/iliyamo/maternal-vitals/internal/queue"
	"github.com/iliyamo/maternal-vitals/internal/repository"
)

const (
	SignalUnknown  = "UNKNOWN"
	SignalNoSignal = "NO_SIGNAL"
)

// FlexFloat accepts a JSON number or a string holding a number.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// IngestRequest is one device frame.  Nil fields were absent (or null) in
// the payload.
type IngestRequest struct {
	PID          *string    `json:"pid"`
	HeartRate    *FlexFloat `json:"heart_rate"`
	SpO2         *FlexFloat `json:"spo2"`
	Temp         *FlexFloat `json:"temp"`
	AX           *FlexFloat `json:"ax"`
	AY           *FlexFloat `json:"ay"`
	AZ           *FlexFloat `json:"az"`
	SignalStatus *string    `json:"signal_status"`
}

// DecodeIngestRequest parses a device payload.  Malformed JSON and
// non-numeric vitals are ErrValidation.
func DecodeIngestRequest(body []byte) (IngestRequest, error) {
	var req IngestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return IngestRequest{}, invalid("invalid payload")
	}
	return req, nil
}

// validate checks required fields in payload order and reports the first
// one missing.
func (r IngestRequest) validate() error {
	switch {
	case r.PID == nil || strings.TrimSpace(*r.PID) == "":
		return &FieldError{Field: "pid"}
	case r.HeartRate == nil:
		return &FieldError{Field: "heart_rate"}
	case r.SpO2 == nil:
		return &FieldError{Field: "spo2"}
	case r.Temp == nil:
		return &FieldError{Field: "temp"}
	case r.AX == nil:
		return &FieldError{Field: "ax"}
	case r.AY == nil:
		return &FieldError{Field: "ay"}
	case r.AZ == nil:
		return &FieldError{Field: "az"}
	}
	return nil
}

func normalizeSignal(s *string) string {
	if s == nil {
		return SignalUnknown
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	if v == "" {
		return SignalUnknown
	}
	return v
}

// IngestOutcome describes what a frame produced.  Stored is false for
// NO_SIGNAL frames; Alert is nil when no rule fired (or alerting on
// NO_SIGNAL is disabled).
type IngestOutcome struct {
	PID          string
	SignalStatus string
	Stored       bool
	Reading      model.Reading
	Violations   []model.Violation
	Alert        *model.Alert
}

// Abnormalities lists the violation messages in evaluation order.
func (o IngestOutcome) Abnormalities() []string {
	out := make([]string, 0, len(o.Violations))
	for _, v := range o.Violations {
		out = append(out, v.Message)
	}
	return out
}

// AlertPublisher receives committed alerts.  queue.AsyncPublisher implements
// it without blocking on the broker.
type AlertPublisher interface {
	PublishAlertRaised(ctx context.Context, ev queue.AlertRaisedEvent) error
}

// TelemetryIngestor validates device frames, stores the reading and raises
// alerts synchronously.
type TelemetryIngestor struct {
	db              *sql.DB
	patients        *repository.PatientRepo
	readings        *repository.ReadingRepo
	engine          *AlertEngine
	events          AlertPublisher // nil disables publishing
	alertOnNoSignal bool
	now             func() time.Time
	log             zerolog.Logger
}

func NewTelemetryIngestor(db *sql.DB, patients *repository.PatientRepo, readings *repository.ReadingRepo,
	engine *AlertEngine, events AlertPublisher, alertOnNoSignal bool, log zerolog.Logger) *TelemetryIngestor {
	return &TelemetryIngestor{
		db: db, patients: patients, readings: readings, engine: engine, events: events,
		alertOnNoSignal: alertOnNoSignal, now: time.Now, log: log,
	}
}

// Ingest processes one frame.  The reading insert and the alert insert
// commit together or not at all.
func (s *TelemetryIngestor) Ingest(ctx context.Context, req IngestRequest) (IngestOutcome, error) {
	if err := req.validate(); err != nil {
		return IngestOutcome{}, err
	}
	pid := strings.TrimSpace(*req.PID)

	key, err := s.patients.KeyByAccountID(ctx, pid)
	if errors.Is(err, sql.ErrNoRows) {
		return IngestOutcome{}, &UnauthorizedDeviceError{PID: pid}
	}
	if err != nil {
		return IngestOutcome{}, storageErr("resolve pid", err)
	}

	out := IngestOutcome{
		PID:          pid,
		SignalStatus: normalizeSignal(req.SignalStatus),
		Reading: model.Reading{
			PatientKey:  key,
			HeartRate:   float64(*req.HeartRate),
			SpO2:        float64(*req.SpO2),
			Temperature: float64(*req.Temp),
			AccelX:      float64(*req.AX),
			AccelY:      float64(*req.AY),
			AccelZ:      float64(*req.AZ),
			Timestamp:   s.now().UTC().Truncate(time.Second),
		},
	}
	out.Stored = out.SignalStatus != SignalNoSignal
	out.Violations = s.engine.Evaluate(out.Reading)
	raise := len(out.Violations) > 0 && (out.Stored || s.alertOnNoSignal)

	if out.Stored || raise {
		err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			if out.Stored {
				if err := s.readings.InsertTx(ctx, tx, &out.Reading); err != nil {
					return err
				}
			}
			if raise {
				a, err := s.engine.RaiseTx(ctx, tx, out.Reading, out.Violations)
				if err != nil {
					return err
				}
				out.Alert = a
			}
			return nil
		})
		if err != nil {
			return IngestOutcome{}, storageErr("ingest", err)
		}
	}

	if out.Alert != nil {
		s.publish(ctx, out)
	}
	return out, nil
}

func (s *TelemetryIngestor) publish(ctx context.Context, out IngestOutcome) {
	if s.events == nil {
		return
	}
	a := out.Alert
	ev := queue.AlertRaisedEvent{
		AlertID:      a.ID,
		PatientID:    out.PID,
		AlertType:    a.Type,
		Message:      a.Message,
		Value:        a.Value,
		SignalStatus: out.SignalStatus,
		RecordedAt:   a.RecordedAt.UTC().Format(time.RFC3339),
	}
	for _, v := range a.Violations {
		ev.Violations = append(ev.Violations, queue.EventViolation{Rule: v.Rule, Value: v.Value})
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.PublishAlertRaised(pctx, ev); err != nil {
		s.log.Warn().Err(err).Uint64("alert_id", a.ID).Msg("alert event not published")
	}
}
