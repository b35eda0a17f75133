package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/model"
)

// PatientRepo reads and writes the 'patients' table.  Patient rows are
// keyed internally by patient_pk; the external PID lives in account_fk.
type PatientRepo struct{ DB *sql.DB }

func NewPatientRepo(db *sql.DB) *PatientRepo { return &PatientRepo{DB: db} }

// CreateTx inserts a patient profile and returns its generated key.  The
// account row must already exist in the same transaction.
func (r *PatientRepo) CreateTx(ctx context.Context, q database.Querier, p model.Patient) (uint64, error) {
	var doctor sql.NullInt64
	if p.AssignedDoctorID != nil {
		doctor = sql.NullInt64{Int64: int64(*p.AssignedDoctorID), Valid: true}
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO patients (account_fk, assigned_doctor_fk, first_name, last_name, address) VALUES (?,?,?,?,?)",
		p.AccountID, doctor, p.FirstName, p.LastName, p.Address)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// KeyByAccountID resolves a PID to the internal patient key.
// sql.ErrNoRows is returned when the PID is unknown.
func (r *PatientRepo) KeyByAccountID(ctx context.Context, accountID string) (uint64, error) {
	var key uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT patient_pk FROM patients WHERE account_fk=? LIMIT 1", accountID).Scan(&key)
	return key, err
}

// Profile returns the self-service view of a patient, including the
// assigned doctor's name when there is one.
func (r *PatientRepo) Profile(ctx context.Context, accountID string) (model.PatientProfile, error) {
	const q = `SELECT p.account_fk, p.first_name, p.last_name, a.email, p.address,
       CONCAT(d.first_name, ' ', d.last_name)
FROM patients p
JOIN accounts a ON a.id = p.account_fk
LEFT JOIN doctors d ON d.doctor_pk = p.assigned_doctor_fk
WHERE p.account_fk = ? LIMIT 1`
	var (
		pp     model.PatientProfile
		doctor sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, q, accountID).Scan(
		&pp.PatientID, &pp.FirstName, &pp.LastName, &pp.Email, &pp.Address, &doctor)
	if err != nil {
		return model.PatientProfile{}, err
	}
	if doctor.Valid {
		name := doctor.String
		pp.DoctorName = &name
	}
	return pp, nil
}

// RosterRecord is one row of a doctor's patient list: the patient and
// their most recent reading, nil when none has been recorded yet.
type RosterRecord struct {
	PatientID string
	FirstName string
	LastName  string
	Latest    *model.Reading
}

// Roster lists every patient assigned to doctorKey with their latest
// reading, ordered by name.
func (r *PatientRepo) Roster(ctx context.Context, doctorKey uint64) ([]RosterRecord, error) {
	const q = `SELECT p.patient_pk, p.account_fk, p.first_name, p.last_name,
       r.heart_rate, r.spo2, r.temperature, r.acc_ax, r.acc_ay, r.acc_az, r.timestamp
FROM patients p
LEFT JOIN (
    SELECT patient_fk, heart_rate, spo2, temperature, acc_ax, acc_ay, acc_az, timestamp,
           ROW_NUMBER() OVER (PARTITION BY patient_fk ORDER BY timestamp DESC, reading_id DESC) AS rn
    FROM readings
) r ON r.patient_fk = p.patient_pk AND r.rn = 1
WHERE p.assigned_doctor_fk = ?
ORDER BY p.last_name, p.first_name`
	rows, err := r.DB.QueryContext(ctx, q, doctorKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RosterRecord
	for rows.Next() {
		var (
			rec            RosterRecord
			key            uint64
			hr, spo2, temp sql.NullFloat64
			ax, ay, az     sql.NullFloat64
			ts             sql.NullTime
		)
		if err := rows.Scan(&key, &rec.PatientID, &rec.FirstName, &rec.LastName,
			&hr, &spo2, &temp, &ax, &ay, &az, &ts); err != nil {
			return nil, err
		}
		if ts.Valid {
			rec.Latest = &model.Reading{
				PatientKey:  key,
				HeartRate:   hr.Float64,
				SpO2:        spo2.Float64,
				Temperature: temp.Float64,
				AccelX:      ax.Float64,
				AccelY:      ay.Float64,
				AccelZ:      az.Float64,
				Timestamp:   ts.Time,
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
