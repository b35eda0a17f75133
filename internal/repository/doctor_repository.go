package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/model"
)

// DoctorRepo reads and writes the 'doctors' table.
type DoctorRepo struct{ DB *sql.DB }

func NewDoctorRepo(db *sql.DB) *DoctorRepo { return &DoctorRepo{DB: db} }

// CreateTx inserts a doctor profile and returns its generated key.
func (r *DoctorRepo) CreateTx(ctx context.Context, q database.Querier, d model.Doctor) (uint64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO doctors (account_fk, first_name, last_name) VALUES (?,?,?)",
		d.AccountID, d.FirstName, d.LastName)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// KeyByAccountIDTx resolves a DOC id to the internal doctor key.
// sql.ErrNoRows is returned when no doctor profile exists.
func (r *DoctorRepo) KeyByAccountIDTx(ctx context.Context, q database.Querier, accountID string) (uint64, error) {
	var key uint64
	err := q.QueryRowContext(ctx,
		"SELECT doctor_pk FROM doctors WHERE account_fk=? LIMIT 1", accountID).Scan(&key)
	return key, err
}

// KeyByAccountID is KeyByAccountIDTx outside a transaction.
func (r *DoctorRepo) KeyByAccountID(ctx context.Context, accountID string) (uint64, error) {
	return r.KeyByAccountIDTx(ctx, r.DB, accountID)
}
