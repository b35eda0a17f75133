package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/model"
)

// ReadingRepo appends and queries the 'readings' time series.  There is
// deliberately no update or delete method.
type ReadingRepo struct{ DB *sql.DB }

func NewReadingRepo(db *sql.DB) *ReadingRepo { return &ReadingRepo{DB: db} }

const readingColumns = "reading_id, patient_fk, heart_rate, spo2, temperature, acc_ax, acc_ay, acc_az, timestamp"

// InsertTx appends a reading and sets its generated ID.
func (r *ReadingRepo) InsertTx(ctx context.Context, q database.Querier, rd *model.Reading) error {
	res, err := q.ExecContext(ctx,
		"INSERT INTO readings (patient_fk, heart_rate, spo2, temperature, acc_ax, acc_ay, acc_az, timestamp) VALUES (?,?,?,?,?,?,?,?)",
		rd.PatientKey, rd.HeartRate, rd.SpO2, rd.Temperature, rd.AccelX, rd.AccelY, rd.AccelZ, rd.Timestamp)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rd.ID = uint64(id)
	return nil
}

// Latest returns the most recent reading for a patient, or nil when the
// patient has none.
func (r *ReadingRepo) Latest(ctx context.Context, patientKey uint64) (*model.Reading, error) {
	var rd model.Reading
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+readingColumns+" FROM readings WHERE patient_fk=? ORDER BY timestamp DESC, reading_id DESC LIMIT 1",
		patientKey).Scan(&rd.ID, &rd.PatientKey, &rd.HeartRate, &rd.SpO2, &rd.Temperature,
		&rd.AccelX, &rd.AccelY, &rd.AccelZ, &rd.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

// Since returns readings with timestamp >= since in ascending order.
func (r *ReadingRepo) Since(ctx context.Context, patientKey uint64, since time.Time) ([]model.Reading, error) {
	return r.list(ctx,
		"SELECT "+readingColumns+" FROM readings WHERE patient_fk=? AND timestamp >= ? ORDER BY timestamp ASC, reading_id ASC",
		patientKey, since)
}

// All returns every reading for a patient, newest first.
func (r *ReadingRepo) All(ctx context.Context, patientKey uint64) ([]model.Reading, error) {
	return r.list(ctx,
		"SELECT "+readingColumns+" FROM readings WHERE patient_fk=? ORDER BY timestamp DESC, reading_id DESC",
		patientKey)
}

func (r *ReadingRepo) list(ctx context.Context, q string, args ...any) ([]model.Reading, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reading, 0)
	for rows.Next() {
		var rd model.Reading
		if err := rows.Scan(&rd.ID, &rd.PatientKey, &rd.HeartRate, &rd.SpO2, &rd.Temperature,
			&rd.AccelX, &rd.AccelY, &rd.AccelZ, &rd.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}
