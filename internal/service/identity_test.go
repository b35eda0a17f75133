package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() Registration {
	return Registration{
		FirstName: " Jane ", LastName: "Doe", Email: "jane@example.com",
		Password: "s3cret!", Address: "1 Main St",
	}
}

func expectFreshAttempt(mock sqlmock.Sqlmock, id string) {
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM accounts WHERE email").WithArgs("jane@example.com").WillReturnRows(noRows())
	mock.ExpectQuery("SELECT 1 FROM accounts WHERE id").WithArgs(id).WillReturnRows(noRows())
}

func TestRandomDigits_Format(t *testing.T) {
	for width := initialIDWidth; width <= maxIDWidth; width++ {
		re := regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, width))
		for i := 0; i < 50; i++ {
			d, err := RandomDigits{}.Candidate(width)
			require.NoError(t, err)
			assert.Regexp(t, re, d)
			assert.NotRegexp(t, `^0+$`, d)
		}
	}
	d, _ := RandomDigits{}.Candidate(initialIDWidth)
	assert.Regexp(t, `^PID\d{7}$`, PatientIDPrefix+d)
}

func TestRegister_CreatesAccountAndProfile(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000001"}

	expectFreshAttempt(f.mock, "PID0000001")
	f.mock.ExpectExec("INSERT INTO accounts").
		WithArgs("PID0000001", "jane@example.com", "h:s3cret!", "patient").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO patients").
		WithArgs("PID0000001", nil, "Jane", "Doe", "1 Main St").
		WillReturnResult(sqlmock.NewResult(5, 1))
	f.mock.ExpectCommit()

	pid, err := f.registry.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "PID0000001", pid)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_RetriesAfterPrimaryKeyRace(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000001", "0000002"}

	// Both registrations saw the candidate as free; the primary key decides.
	expectFreshAttempt(f.mock, "PID0000001")
	f.mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'PID0000001' for key 'accounts.PRIMARY'"})
	f.mock.ExpectRollback()

	expectFreshAttempt(f.mock, "PID0000002")
	f.mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO patients").WillReturnResult(sqlmock.NewResult(6, 1))
	f.mock.ExpectCommit()

	pid, err := f.registry.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "PID0000002", pid)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_RetriesWhenCandidateExists(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000001", "0000002"}

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT 1 FROM accounts WHERE email").WillReturnRows(noRows())
	f.mock.ExpectQuery("SELECT 1 FROM accounts WHERE id").WithArgs("PID0000001").WillReturnRows(oneRow())
	f.mock.ExpectRollback()

	expectFreshAttempt(f.mock, "PID0000002")
	f.mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO patients").WillReturnResult(sqlmock.NewResult(6, 1))
	f.mock.ExpectCommit()

	pid, err := f.registry.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "PID0000002", pid)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_EscalatesWidthThenGivesUp(t *testing.T) {
	f := newFixture(t)
	total := (maxIDWidth - initialIDWidth + 1) * attemptsPerWidth
	for i := 0; i < total; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("SELECT 1 FROM accounts WHERE email").WillReturnRows(noRows())
		f.mock.ExpectQuery("SELECT 1 FROM accounts WHERE id").WillReturnRows(oneRow())
		f.mock.ExpectRollback()
	}

	_, err := f.registry.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrConflict)
	require.Len(t, f.ids.widths, total)
	assert.Equal(t, initialIDWidth, f.ids.widths[0])
	assert.Equal(t, initialIDWidth+1, f.ids.widths[attemptsPerWidth])
	assert.Equal(t, maxIDWidth, f.ids.widths[total-1])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmailRollsBack(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT 1 FROM accounts WHERE email").WithArgs("jane@example.com").WillReturnRows(oneRow())
	f.mock.ExpectRollback()

	_, err := f.registry.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_ConcurrentEmailInsertIsConflict(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000001"}

	expectFreshAttempt(f.mock, "PID0000001")
	f.mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jane@example.com' for key 'accounts.uq_accounts_email'"})
	f.mock.ExpectRollback()

	_, err := f.registry.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_ProfileFailureRollsBackAccount(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000001"}

	expectFreshAttempt(f.mock, "PID0000001")
	f.mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO patients").WillReturnError(assert.AnError)
	f.mock.ExpectRollback()

	_, err := f.registry.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrStorage)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_AssignsKnownDoctor(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000001"}
	in := validRegistration()
	in.DoctorID = "DOC0000001"

	expectFreshAttempt(f.mock, "PID0000001")
	expectDoctorKey(f.mock, "DOC0000001", 3)
	f.mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO patients").
		WithArgs("PID0000001", int64(3), "Jane", "Doe", "1 Main St").
		WillReturnResult(sqlmock.NewResult(6, 1))
	f.mock.ExpectCommit()

	_, err := f.registry.Register(context.Background(), in)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_UnknownDoctorIsValidationError(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000001"}
	in := validRegistration()
	in.DoctorID = "DOC0000404"

	expectFreshAttempt(f.mock, "PID0000001")
	f.mock.ExpectQuery("SELECT doctor_pk FROM doctors").WithArgs("DOC0000404").
		WillReturnRows(sqlmock.NewRows([]string{"doctor_pk"}))
	f.mock.ExpectRollback()

	_, err := f.registry.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	cases := map[string]func(*Registration){
		"blank first name": func(r *Registration) { r.FirstName = "   " },
		"missing address":  func(r *Registration) { r.Address = "" },
		"bad email":        func(r *Registration) { r.Email = "not-an-email" },
		"display name":     func(r *Registration) { r.Email = "Jane <jane@example.com>" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			in := validRegistration()
			mutate(&in)
			_, err := f.registry.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestRegisterDoctor_UsesDoctorPrefix(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000042"}

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT 1 FROM accounts WHERE email").WithArgs("house@example.com").WillReturnRows(noRows())
	f.mock.ExpectQuery("SELECT 1 FROM accounts WHERE id").WithArgs("DOC0000042").WillReturnRows(noRows())
	f.mock.ExpectExec("INSERT INTO accounts").
		WithArgs("DOC0000042", "house@example.com", "h:pw", "doctor").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO doctors").WithArgs("DOC0000042", "Greg", "House").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	id, err := f.registry.RegisterDoctor(context.Background(), DoctorRegistration{
		FirstName: "Greg", LastName: "House", Email: "house@example.com", Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "DOC0000042", id)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerify_RepeatedBadLoginsFailTheSameWay(t *testing.T) {
	f := newFixture(t)
	cols := []string{"id", "email", "password_hash", "role", "created_at"}

	for i := 0; i < 3; i++ {
		f.mock.ExpectQuery("FROM accounts WHERE id").WithArgs("PID0000001").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("PID0000001", "jane@example.com", "h:right", "patient", fixedNow))
	}
	f.mock.ExpectQuery("FROM accounts WHERE id").WithArgs("PID0000404").
		WillReturnRows(sqlmock.NewRows(cols))

	for i := 0; i < 3; i++ {
		_, err := f.registry.Verify(context.Background(), "PID0000001", "wrong")
		assert.ErrorIs(t, err, ErrAuthentication)
	}
	_, err := f.registry.Verify(context.Background(), "PID0000404", "right")
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerify_Success(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery("FROM accounts WHERE id").WithArgs("DOC0000001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at"}).
			AddRow("DOC0000001", "doc@example.com", "h:pw", "doctor", fixedNow))

	a, err := f.registry.Verify(context.Background(), " DOC0000001 ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "doctor", string(a.Role))
}

func TestRegister_PasswordWhitespaceSurvivesLogin(t *testing.T) {
	f := newFixture(t)
	f.ids.next = []string{"0000001"}
	in := validRegistration()
	in.Password = "  s3cret!  "

	expectFreshAttempt(f.mock, "PID0000001")
	f.mock.ExpectExec("INSERT INTO accounts").
		WithArgs("PID0000001", "jane@example.com", "h:  s3cret!  ", "patient").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO patients").
		WithArgs("PID0000001", nil, "Jane", "Doe", "1 Main St").
		WillReturnResult(sqlmock.NewResult(5, 1))
	f.mock.ExpectCommit()

	pid, err := f.registry.Register(context.Background(), in)
	require.NoError(t, err)

	cols := []string{"id", "email", "password_hash", "role", "created_at"}
	for i := 0; i < 2; i++ {
		f.mock.ExpectQuery("FROM accounts WHERE id").WithArgs(pid).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(pid, "jane@example.com", "h:  s3cret!  ", "patient", fixedNow))
	}

	_, err = f.registry.Verify(context.Background(), pid, "  s3cret!  ")
	assert.NoError(t, err)
	_, err = f.registry.Verify(context.Background(), pid, "s3cret!")
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPatientProfile_NotFound(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery("FROM patients p").WithArgs("PID0000404").
		WillReturnRows(sqlmock.NewRows([]string{"account_fk", "first_name", "last_name", "email", "address", "doctor"}))

	_, err := f.registry.PatientProfile(context.Background(), "PID0000404")
	assert.ErrorIs(t, err, ErrNotFound)
}
