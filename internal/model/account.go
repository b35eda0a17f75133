package model

import "time"

// Role is the value stored in accounts.role and carried in the JWT "role"
// claim.
type Role string

const (
    RolePatient Role = "patient"
    RoleDoctor  Role = "doctor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RolePatient || r == RoleDoctor }

// Account represents a login identity as stored in the `accounts` table.
// The ID is the human-facing identifier (e.g. PID0012345) and is never
// reused.
//
// Fields:
//  ID           – external identifier, 3-letter prefix plus digits.
//  Email        – unique email address.
//  PasswordHash – bcrypt hash of the password.
//  Role         – patient or doctor.
//  CreatedAt    – timestamp of creation.
type Account struct {
    ID           string    // accounts.id
    Email        string    // accounts.email
    PasswordHash string    // accounts.password_hash
    Role         Role      // accounts.role
    CreatedAt    time.Time // accounts.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA-256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    AccountID string     // refresh_tokens.account_fk
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
