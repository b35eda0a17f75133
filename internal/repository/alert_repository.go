package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/model"
)

// AlertRepo persists alerts and their per-rule violation rows.  Status
// only ever moves from UNREAD to READ.
type AlertRepo struct{ DB *sql.DB }

func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{DB: db} }

const alertColumns = "alert_id, patient_fk, alert_type, alert_message, value, recorded_at, status"

// InsertTx writes the alert row followed by one alert_violations row per
// entry in a.Violations, all on q.  The generated ID is set on a.
func (r *AlertRepo) InsertTx(ctx context.Context, q database.Querier, a *model.Alert) error {
	res, err := q.ExecContext(ctx,
		"INSERT INTO alerts (patient_fk, alert_type, alert_message, value, recorded_at, status) VALUES (?,?,?,?,?,?)",
		a.PatientKey, a.Type, a.Message, a.Value, a.RecordedAt, string(a.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	if len(a.Violations) == 0 {
		return nil
	}
	query := "INSERT INTO alert_violations (alert_fk, rule, value, message) VALUES "
	args := make([]any, 0, len(a.Violations)*4)
	for i, v := range a.Violations {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, a.ID, v.Rule, v.Value, v.Message)
	}
	_, err = q.ExecContext(ctx, query, args...)
	return err
}

// GetByID fetches an alert without its violations.  sql.ErrNoRows is
// returned unchanged when it does not exist.
func (r *AlertRepo) GetByID(ctx context.Context, id uint64) (model.Alert, error) {
	a, err := scanAlert(r.DB.QueryRowContext(ctx,
		"SELECT "+alertColumns+" FROM alerts WHERE alert_id=? LIMIT 1", id))
	return a, err
}

// MarkRead flips an UNREAD alert to READ.  It reports whether a row changed;
// a READ alert is left untouched.
func (r *AlertRepo) MarkRead(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE alerts SET status='READ' WHERE alert_id=? AND status='UNREAD'", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByPatient returns a patient's alerts newest first, optionally
// filtered by status.
func (r *AlertRepo) ListByPatient(ctx context.Context, patientKey uint64, status *model.AlertStatus) ([]model.Alert, error) {
	query := "SELECT " + alertColumns + " FROM alerts WHERE patient_fk=?"
	args := []any{patientKey}
	if status != nil {
		query += " AND status=?"
		args = append(args, string(*status))
	}
	query += " ORDER BY recorded_at DESC, alert_id DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// TriageRecord pairs a patient with their newest UNREAD alert.
type TriageRecord struct {
	PatientID string
	FirstName string
	LastName  string
	Alert     model.Alert
}

// LatestUnreadByDoctor returns, for each patient assigned to doctorKey that
// has UNREAD alerts, the newest of them.  Rows are ordered newest first.
func (r *AlertRepo) LatestUnreadByDoctor(ctx context.Context, doctorKey uint64) ([]TriageRecord, error) {
	const q = `SELECT p.account_fk, p.first_name, p.last_name,
       a.alert_id, a.patient_fk, a.alert_type, a.alert_message, a.value, a.recorded_at, a.status
FROM patients p
JOIN (
    SELECT alert_id, patient_fk, alert_type, alert_message, value, recorded_at, status,
           ROW_NUMBER() OVER (PARTITION BY patient_fk ORDER BY recorded_at DESC, alert_id DESC) AS rn
    FROM alerts
    WHERE status = 'UNREAD'
) a ON a.patient_fk = p.patient_pk AND a.rn = 1
WHERE p.assigned_doctor_fk = ?
ORDER BY a.recorded_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, doctorKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TriageRecord, 0)
	for rows.Next() {
		var (
			rec    TriageRecord
			status string
		)
		if err := rows.Scan(&rec.PatientID, &rec.FirstName, &rec.LastName,
			&rec.Alert.ID, &rec.Alert.PatientKey, &rec.Alert.Type, &rec.Alert.Message,
			&rec.Alert.Value, &rec.Alert.RecordedAt, &status); err != nil {
			return nil, err
		}
		rec.Alert.Status = model.AlertStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(s rowScanner) (model.Alert, error) {
	var (
		a      model.Alert
		status string
	)
	err := s.Scan(&a.ID, &a.PatientKey, &a.Type, &a.Message, &a.Value, &a.RecordedAt, &status)
	a.Status = model.AlertStatus(status)
	return a, err
}
