package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/model"
	"github.com/iliyamo/maternal-vitals/internal/repository"
)

const (
	PatientIDPrefix = "PID"
	DoctorIDPrefix  = "DOC"

	initialIDWidth   = 7
	maxIDWidth       = 10
	attemptsPerWidth = 8
)

// PasswordHasher hashes and verifies passwords.  utils.BcryptHasher is the
// production implementation.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// IDGenerator returns a candidate numeric id of exactly width digits.
type IDGenerator interface {
	Candidate(width int) (string, error)
}

// RandomDigits draws uniformly from [1, 10^width-1] and zero-pads.
type RandomDigits struct{}

func (RandomDigits) Candidate(width int) (string, error) {
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(width)), nil)
	upper.Sub(upper, big.NewInt(1))
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", err
	}
	n.Add(n, big.NewInt(1))
	return fmt.Sprintf("%0*d", width, n.Int64()), nil
}

// Registration is the self-registration input of a patient.  DoctorID is
// optional and assigns the patient to an existing doctor.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Address   string
	DoctorID  string
}

// DoctorRegistration provisions a doctor account.
type DoctorRegistration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// IdentityRegistry creates accounts with their profiles and verifies
// credentials.
type IdentityRegistry struct {
	db       *sql.DB
	accounts *repository.AccountRepo
	patients *repository.PatientRepo
	doctors  *repository.DoctorRepo
	hasher   PasswordHasher
	ids      IDGenerator
	log      zerolog.Logger
}

func NewIdentityRegistry(db *sql.DB, accounts *repository.AccountRepo, patients *repository.PatientRepo,
	doctors *repository.DoctorRepo, hasher PasswordHasher, log zerolog.Logger) *IdentityRegistry {
	return &IdentityRegistry{
		db: db, accounts: accounts, patients: patients, doctors: doctors,
		hasher: hasher, ids: RandomDigits{}, log: log,
	}
}

// Register creates a patient account and its profile in one transaction
// and returns the new PID.  The password is hashed exactly as given.
func (r *IdentityRegistry) Register(ctx context.Context, in Registration) (string, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.DoctorID = strings.TrimSpace(in.DoctorID)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" || in.Address == "" {
		return "", invalid("all fields are required")
	}
	if err := validateEmail(in.Email); err != nil {
		return "", err
	}
	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return r.allocate(ctx, PatientIDPrefix, in.Email, func(q database.Querier, id string) error {
		var doctorKey *uint64
		if in.DoctorID != "" {
			key, err := r.doctors.KeyByAccountIDTx(ctx, q, in.DoctorID)
			if errors.Is(err, sql.ErrNoRows) {
				return invalid("unknown doctor %s", in.DoctorID)
			}
			if err != nil {
				return err
			}
			doctorKey = &key
		}
		if err := r.accounts.CreateTx(ctx, q, model.Account{
			ID: id, Email: in.Email, PasswordHash: hash, Role: model.RolePatient,
		}); err != nil {
			return err
		}
		_, err := r.patients.CreateTx(ctx, q, model.Patient{
			AccountID: id, AssignedDoctorID: doctorKey,
			FirstName: in.FirstName, LastName: in.LastName, Address: in.Address,
		})
		return err
	})
}

// RegisterDoctor creates a doctor account and profile and returns the new
// DOC id.
func (r *IdentityRegistry) RegisterDoctor(ctx context.Context, in DoctorRegistration) (string, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return "", invalid("all fields are required")
	}
	if err := validateEmail(in.Email); err != nil {
		return "", err
	}
	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return r.allocate(ctx, DoctorIDPrefix, in.Email, func(q database.Querier, id string) error {
		if err := r.accounts.CreateTx(ctx, q, model.Account{
			ID: id, Email: in.Email, PasswordHash: hash, Role: model.RoleDoctor,
		}); err != nil {
			return err
		}
		_, err := r.doctors.CreateTx(ctx, q, model.Doctor{
			AccountID: id, FirstName: in.FirstName, LastName: in.LastName,
		})
		return err
	})
}

// allocate draws candidate ids and runs create for each inside its own
// transaction until one commits.  A candidate already present, or one
// that loses an insert race on the primary key, is retried with a fresh
// candidate; after attemptsPerWidth misses the width grows by one digit.
// The email check runs first in every attempt.
func (r *IdentityRegistry) allocate(ctx context.Context, prefix, email string, create func(q database.Querier, id string) error) (string, error) {
	for width := initialIDWidth; width <= maxIDWidth; width++ {
		for attempt := 0; attempt < attemptsPerWidth; attempt++ {
			digits, err := r.ids.Candidate(width)
			if err != nil {
				return "", fmt.Errorf("generate id: %w", err)
			}
			id := prefix + digits

			err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
				exists, err := r.accounts.EmailExistsTx(ctx, tx, email)
				if err != nil {
					return err
				}
				if exists {
					return repository.ErrEmailExists
				}
				taken, err := r.accounts.IDExistsTx(ctx, tx, id)
				if err != nil {
					return err
				}
				if taken {
					return repository.ErrAccountIDTaken
				}
				return create(tx, id)
			})
			switch {
			case err == nil:
				r.log.Info().Str("account_id", id).Msg("account registered")
				return id, nil
			case errors.Is(err, repository.ErrAccountIDTaken):
				r.log.Debug().Str("candidate", id).Int("width", width).Msg("account id collision, retrying")
				continue
			case errors.Is(err, repository.ErrEmailExists):
				return "", fmt.Errorf("%w: email already registered", ErrConflict)
			case errors.Is(err, ErrValidation):
				return "", err
			default:
				return "", storageErr("register", err)
			}
		}
	}
	return "", fmt.Errorf("%w: no free account id", ErrConflict)
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email is not a valid address")
	}
	return nil
}

// Verify checks an id/password pair.  An unknown id and a wrong password
// are indistinguishable to the caller.
func (r *IdentityRegistry) Verify(ctx context.Context, id, password string) (model.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" || password == "" {
		return model.Account{}, ErrAuthentication
	}
	a, err := r.accounts.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrAuthentication
	}
	if err != nil {
		return model.Account{}, storageErr("verify", err)
	}
	if !r.hasher.Verify(a.PasswordHash, password) {
		return model.Account{}, ErrAuthentication
	}
	return a, nil
}

// Account fetches an account by id, for session refresh and /me.
func (r *IdentityRegistry) Account(ctx context.Context, id string) (model.Account, error) {
	a, err := r.accounts.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("%w: account %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Account{}, storageErr("get account", err)
	}
	return a, nil
}

// PatientProfile returns the self-service profile of a patient account.
func (r *IdentityRegistry) PatientProfile(ctx context.Context, accountID string) (model.PatientProfile, error) {
	pp, err := r.patients.Profile(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PatientProfile{}, fmt.Errorf("%w: patient %s", ErrNotFound, accountID)
	}
	if err != nil {
		return model.PatientProfile{}, storageErr("patient profile", err)
	}
	return pp, nil
}
