package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/maternal-vitals/internal/model"
	"github.com/iliyamo/maternal-vitals/internal/repository"
)

// PatientScope is proof that the caller may read one patient's data.  It
// can only be obtained from SelfScope or DoctorScope, and every history
// query takes one.
type PatientScope struct {
	patientKey uint64
	patientID  string
}

func (s PatientScope) PatientID() string { return s.patientID }

// Window is a trailing time range ending now.
type Window struct {
	Hours int
	Days  int
}

func (w Window) Duration() time.Duration {
	return time.Duration(w.Hours)*time.Hour + time.Duration(w.Days)*24*time.Hour
}

var (
	PatientTrendWindow = Window{Hours: 24}
	DoctorTrendWindow  = Window{Days: 7}
)

// RosterEntry is one patient on a doctor's dashboard.
type RosterEntry struct {
	PatientID string
	FirstName string
	LastName  string
	Latest    *model.Reading
	Warning   bool
}

// HistoryService serves scoped reads of readings and alerts.
type HistoryService struct {
	patients    *repository.PatientRepo
	readings    *repository.ReadingRepo
	alerts      *repository.AlertRepo
	assignments *AssignmentDirectory
	now         func() time.Time
}

func NewHistoryService(patients *repository.PatientRepo, readings *repository.ReadingRepo,
	alerts *repository.AlertRepo, assignments *AssignmentDirectory) *HistoryService {
	return &HistoryService{patients: patients, readings: readings, alerts: alerts, assignments: assignments, now: time.Now}
}

// SelfScope scopes a patient to their own data.
func (h *HistoryService) SelfScope(ctx context.Context, p Principal) (PatientScope, error) {
	if !p.IsPatient() {
		return PatientScope{}, ErrAuthorization
	}
	key, err := h.patients.KeyByAccountID(ctx, p.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return PatientScope{}, fmt.Errorf("%w: no patient profile", ErrAuthorization)
	}
	if err != nil {
		return PatientScope{}, storageErr("resolve patient", err)
	}
	return PatientScope{patientKey: key, patientID: p.AccountID}, nil
}

// DoctorScope scopes a doctor to one assigned patient.  An unknown pid and
// an unassigned pid fail the same way.
func (h *HistoryService) DoctorScope(ctx context.Context, p Principal, pid string) (PatientScope, error) {
	if !p.IsDoctor() {
		return PatientScope{}, ErrAuthorization
	}
	doctorKey, err := h.assignments.DoctorKey(ctx, p.AccountID)
	if err != nil {
		return PatientScope{}, err
	}
	key, err := h.patients.KeyByAccountID(ctx, pid)
	if errors.Is(err, sql.ErrNoRows) {
		return PatientScope{}, ErrAuthorization
	}
	if err != nil {
		return PatientScope{}, storageErr("resolve patient", err)
	}
	ok, err := h.assignments.IsAssigned(ctx, key, doctorKey)
	if err != nil {
		return PatientScope{}, err
	}
	if !ok {
		return PatientScope{}, ErrAuthorization
	}
	return PatientScope{patientKey: key, patientID: pid}, nil
}

// LatestReading returns the newest reading in scope, or nil.
func (h *HistoryService) LatestReading(ctx context.Context, s PatientScope) (*model.Reading, error) {
	rd, err := h.readings.Latest(ctx, s.patientKey)
	if err != nil {
		return nil, storageErr("latest reading", err)
	}
	return rd, nil
}

// ReadingsInWindow returns readings from the trailing window, oldest first.
func (h *HistoryService) ReadingsInWindow(ctx context.Context, s PatientScope, w Window) ([]model.Reading, error) {
	since := h.now().UTC().Add(-w.Duration())
	out, err := h.readings.Since(ctx, s.patientKey, since)
	if err != nil {
		return nil, storageErr("readings in window", err)
	}
	return out, nil
}

// FullReadingHistory returns every reading in scope, newest first.
func (h *HistoryService) FullReadingHistory(ctx context.Context, s PatientScope) ([]model.Reading, error) {
	out, err := h.readings.All(ctx, s.patientKey)
	if err != nil {
		return nil, storageErr("reading history", err)
	}
	return out, nil
}

// Alerts returns alerts in scope, newest first, optionally by status.
func (h *HistoryService) Alerts(ctx context.Context, s PatientScope, status *model.AlertStatus) ([]model.Alert, error) {
	out, err := h.alerts.ListByPatient(ctx, s.patientKey, status)
	if err != nil {
		return nil, storageErr("alert history", err)
	}
	return out, nil
}

// Roster lists the doctor's patients with their latest reading.
func (h *HistoryService) Roster(ctx context.Context, p Principal) ([]RosterEntry, error) {
	if !p.IsDoctor() {
		return nil, ErrAuthorization
	}
	doctorKey, err := h.assignments.DoctorKey(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	recs, err := h.patients.Roster(ctx, doctorKey)
	if err != nil {
		return nil, storageErr("roster", err)
	}
	out := make([]RosterEntry, 0, len(recs))
	for _, r := range recs {
		e := RosterEntry{PatientID: r.PatientID, FirstName: r.FirstName, LastName: r.LastName, Latest: r.Latest}
		if r.Latest != nil {
			e.Warning = RosterThresholds.Flag(*r.Latest)
		}
		out = append(out, e)
	}
	return out, nil
}

// Triage returns the newest UNREAD alert of each assigned patient that
// has one, newest first.
func (h *HistoryService) Triage(ctx context.Context, p Principal) ([]repository.TriageRecord, error) {
	if !p.IsDoctor() {
		return nil, ErrAuthorization
	}
	doctorKey, err := h.assignments.DoctorKey(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	out, err := h.alerts.LatestUnreadByDoctor(ctx, doctorKey)
	if err != nil {
		return nil, storageErr("triage", err)
	}
	return out, nil
}
