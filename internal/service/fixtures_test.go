package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/maternal-vitals/internal/queue"
	"github.com/iliyamo/maternal-vitals/internal/repository"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }

func (plainHasher) Verify(hash, p string) bool { return hash == "h:"+p }

// seqIDs hands out fixed candidates and records the widths requested.
type seqIDs struct {
	next   []string
	widths []int
}

func (s *seqIDs) Candidate(width int) (string, error) {
	s.widths = append(s.widths, width)
	if len(s.next) == 0 {
		return strings.Repeat("9", width), nil
	}
	v := s.next[0]
	s.next = s.next[1:]
	return v, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AlertRaisedEvent
	err    error
}

func (p *recordingPublisher) PublishAlertRaised(_ context.Context, ev queue.AlertRaisedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	registry *IdentityRegistry
	dir      *AssignmentDirectory
	engine   *AlertEngine
	ingestor *TelemetryIngestor
	history  *HistoryService
	pub      *recordingPublisher
	ids      *seqIDs
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	accounts := repository.NewAccountRepo(db)
	patients := repository.NewPatientRepo(db)
	doctors := repository.NewDoctorRepo(db)
	readings := repository.NewReadingRepo(db)
	alerts := repository.NewAlertRepo(db)

	f := &fixture{db: db, mock: mock, pub: &recordingPublisher{}, ids: &seqIDs{}}
	f.registry = NewIdentityRegistry(db, accounts, patients, doctors, plainHasher{}, log)
	f.registry.ids = f.ids
	f.dir = NewAssignmentDirectory(repository.NewAssignmentRepo(db), doctors, nil, 0, log)
	f.engine = NewAlertEngine(alerts, f.dir)
	f.ingestor = NewTelemetryIngestor(db, patients, readings, f.engine, f.pub, true, log)
	f.ingestor.now = func() time.Time { return fixedNow }
	f.history = NewHistoryService(patients, readings, alerts, f.dir)
	f.history.now = func() time.Time { return fixedNow }
	return f
}

func noRows() *sqlmock.Rows { return sqlmock.NewRows([]string{"1"}) }

func oneRow() *sqlmock.Rows { return sqlmock.NewRows([]string{"1"}).AddRow(1) }

func keyRow(col string, key uint64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{col}).AddRow(key)
}

var alertCols = []string{"alert_id", "patient_fk", "alert_type", "alert_message", "value", "recorded_at", "status"}

var readingCols = []string{"reading_id", "patient_fk", "heart_rate", "spo2", "temperature", "acc_ax", "acc_ay", "acc_az", "timestamp"}

func ptr[T any](v T) *T { return &v }

func flex(v float64) *FlexFloat { f := FlexFloat(v); return &f }

func frame(pid string, hr, spo2, temp float64) IngestRequest {
	return IngestRequest{
		PID: ptr(pid), HeartRate: flex(hr), SpO2: flex(spo2), Temp: flex(temp),
		AX: flex(0.1), AY: flex(0.2), AZ: flex(9.8),
	}
}

func expectPatientKey(mock sqlmock.Sqlmock, pid string, key uint64) {
	mock.ExpectQuery("SELECT patient_pk FROM patients WHERE account_fk").WithArgs(pid).
		WillReturnRows(keyRow("patient_pk", key))
}

func expectDoctorKey(mock sqlmock.Sqlmock, id string, key uint64) {
	mock.ExpectQuery("SELECT doctor_pk FROM doctors WHERE account_fk").WithArgs(id).
		WillReturnRows(keyRow("doctor_pk", key))
}
