// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to tell a
// retryable identifier collision apart from a real uniqueness conflict
// without parsing driver messages itself.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when an insert hits the unique email key on
// the accounts table.
var ErrEmailExists = errors.New("email already exists")

// ErrAccountIDTaken is returned when an insert hits the accounts primary
// key.  Callers allocating identifiers should retry with a new candidate.
var ErrAccountIDTaken = errors.New("account id already taken")

// mysqlDuplicateEntry is the server error number for a duplicate key.
const mysqlDuplicateEntry = 1062

// classifyDuplicate maps MySQL error 1062 onto the repository sentinels
// based on the key name in the server message.  Other errors pass through.
func classifyDuplicate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	switch duplicateKeyName(me.Message) {
	case "primary":
		return ErrAccountIDTaken
	case "uq_accounts_email":
		return ErrEmailExists
	}
	return err
}

// duplicateKeyName extracts the lower-cased key from a 1062 message such as
// "Duplicate entry 'x' for key 'accounts.PRIMARY'".  The duplicated value
// comes first in the message and may itself contain quotes or key names, so
// the key is read from the last "for key '" onwards.  MySQL 8 qualifies it
// with the table name; older servers do not.
func duplicateKeyName(msg string) string {
	const marker = "for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len(marker):], "'")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	return strings.ToLower(key)
}
