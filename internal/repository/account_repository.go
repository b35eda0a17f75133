package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/model"
)

// AccountRepo reads and writes the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// EmailExistsTx reports whether the normalized email is already registered.
func (r *AccountRepo) EmailExistsTx(ctx context.Context, q database.Querier, email string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM accounts WHERE email=? LIMIT 1", NormalizeEmail(email)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// IDExistsTx reports whether an account already uses id.
func (r *AccountRepo) IDExistsTx(ctx context.Context, q database.Querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM accounts WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// CreateTx inserts an account.  Duplicate-key failures come back as
// ErrAccountIDTaken or ErrEmailExists.
func (r *AccountRepo) CreateTx(ctx context.Context, q database.Querier, a model.Account) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO accounts (id, email, password_hash, role) VALUES (?,?,?,?)",
		a.ID, NormalizeEmail(a.Email), a.PasswordHash, string(a.Role))
	if err != nil {
		return classifyDuplicate(err)
	}
	return nil
}

// GetByID fetches an account by its external id.  sql.ErrNoRows is
// returned unchanged when it does not exist.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (model.Account, error) {
	var (
		a    model.Account
		role string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,created_at FROM accounts WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.CreatedAt)
	a.Role = model.Role(role)
	return a, err
}
