package repository

import (
	"context"
	"database/sql"
)

// AssignmentRepo answers doctor/patient assignment questions from
// patients.assigned_doctor_fk.  There is no mutation: the assignment is
// fixed at registration time.
type AssignmentRepo struct{ DB *sql.DB }

func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{DB: db} }

// IsAssigned reports whether patientKey is currently assigned to doctorKey.
func (r *AssignmentRepo) IsAssigned(ctx context.Context, patientKey, doctorKey uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM patients WHERE patient_pk=? AND assigned_doctor_fk=? LIMIT 1",
		patientKey, doctorKey).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
