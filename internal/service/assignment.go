package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/maternal-vitals/internal/repository"
)

// AssignmentDirectory answers whether a doctor may see a patient.  Every
// doctor read or write goes through IsAssigned.  Decisions are cached in
// Redis when a client is configured; the database stays authoritative and
// is used whenever the cache misses or fails.
type AssignmentDirectory struct {
	repo    *repository.AssignmentRepo
	doctors *repository.DoctorRepo
	cache   *redis.Client // nil disables caching
	ttl     time.Duration
	log     zerolog.Logger
}

func NewAssignmentDirectory(repo *repository.AssignmentRepo, doctors *repository.DoctorRepo,
	cache *redis.Client, ttl time.Duration, log zerolog.Logger) *AssignmentDirectory {
	return &AssignmentDirectory{repo: repo, doctors: doctors, cache: cache, ttl: ttl, log: log}
}

func assignmentKey(doctorKey, patientKey uint64) string {
	return fmt.Sprintf("assign:%d:%d", doctorKey, patientKey)
}

// IsAssigned reports whether patientKey is assigned to doctorKey.
func (d *AssignmentDirectory) IsAssigned(ctx context.Context, patientKey, doctorKey uint64) (bool, error) {
	key := assignmentKey(doctorKey, patientKey)
	if d.cache != nil && d.ttl > 0 {
		v, err := d.cache.Get(ctx, key).Result()
		switch {
		case err == nil:
			return v == "1", nil
		case !errors.Is(err, redis.Nil):
			d.log.Debug().Err(err).Str("key", key).Msg("assignment cache read failed")
		}
	}

	ok, err := d.repo.IsAssigned(ctx, patientKey, doctorKey)
	if err != nil {
		return false, storageErr("assignment lookup", err)
	}

	if d.cache != nil && d.ttl > 0 {
		v := "0"
		if ok {
			v = "1"
		}
		if err := d.cache.Set(ctx, key, v, d.ttl).Err(); err != nil {
			d.log.Debug().Err(err).Str("key", key).Msg("assignment cache write failed")
		}
	}
	return ok, nil
}

// DoctorKey resolves a doctor's account id to its profile key.  A doctor
// account without a profile is treated as unauthorized.
func (d *AssignmentDirectory) DoctorKey(ctx context.Context, accountID string) (uint64, error) {
	key, err := d.doctors.KeyByAccountID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: no doctor profile", ErrAuthorization)
	}
	if err != nil {
		return 0, storageErr("doctor lookup", err)
	}
	return key, nil
}
