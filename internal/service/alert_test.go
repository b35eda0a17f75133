package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/maternal-vitals/internal/model"
)

func TestEvaluate(t *testing.T) {
	e := &AlertEngine{limits: AlertThresholds}
	cases := []struct {
		name           string
		hr, spo2, temp float64
		want           []string
	}{
		{"normal", 80, 98, 36.8, nil},
		{"bounds are normal", 50, 94, 35.5, nil},
		{"upper bounds are normal", 120, 100, 37.5, nil},
		{"tachycardia", 135, 98, 36.8, []string{"Heart rate abnormal (135 bpm)"}},
		{"bradycardia", 49.5, 98, 36.8, []string{"Heart rate abnormal (49.5 bpm)"}},
		{"hypoxia", 80, 93, 36.8, []string{"Oxygen level low (93%)"}},
		{"fever", 80, 98, 38.25, []string{"Body temperature abnormal (38.25°C)"}},
		{"hypothermia", 80, 98, 35.4, []string{"Body temperature abnormal (35.4°C)"}},
		{"all three in order", 130, 90, 38, []string{
			"Heart rate abnormal (130 bpm)",
			"Oxygen level low (90%)",
			"Body temperature abnormal (38°C)",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Evaluate(model.Reading{HeartRate: tc.hr, SpO2: tc.spo2, Temperature: tc.temp})
			var msgs []string
			for _, v := range got {
				msgs = append(msgs, v.Message)
			}
			assert.Equal(t, tc.want, msgs)
		})
	}
}

func TestDisplayAndRosterThresholdsDivergeFromAlerting(t *testing.T) {
	r := model.Reading{HeartRate: 110, SpO2: 94.5, Temperature: 37.6}
	e := &AlertEngine{limits: AlertThresholds}

	assert.Empty(t, e.Evaluate(r))
	assert.Equal(t, VitalsStatus{HeartRate: "normal", SpO2: "low", Temperature: "normal"}, DisplayThresholds.Classify(r))
	assert.True(t, RosterThresholds.Flag(r))

	r.Temperature = 37.8
	assert.Equal(t, "high", DisplayThresholds.Classify(r).Temperature)
}

func TestAcknowledge_IsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery("FROM alerts WHERE alert_id").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(alertCols).AddRow(5, 7, "Abnormal Reading", "x", 135.0, fixedNow, "UNREAD"))
	f.mock.ExpectExec("UPDATE alerts SET status='READ'").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery("FROM alerts WHERE alert_id").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(alertCols).AddRow(5, 7, "Abnormal Reading", "x", 135.0, fixedNow, "READ"))

	require.NoError(t, f.engine.Acknowledge(context.Background(), 5))
	require.NoError(t, f.engine.Acknowledge(context.Background(), 5))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAcknowledge_UnknownAlert(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery("FROM alerts WHERE alert_id").WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows(alertCols))

	err := f.engine.Acknowledge(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcknowledgeForDoctor_OtherDoctorsAlertIsNotFound(t *testing.T) {
	f := newFixture(t)
	doctor := Principal{AccountID: "DOC0000001", Role: model.RoleDoctor}

	expectDoctorKey(f.mock, "DOC0000001", 3)
	f.mock.ExpectQuery("FROM alerts WHERE alert_id").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(alertCols).AddRow(5, 9, "Abnormal Reading", "x", 135.0, fixedNow, "UNREAD"))
	f.mock.ExpectQuery("SELECT 1 FROM patients WHERE patient_pk").WithArgs(uint64(9), uint64(3)).
		WillReturnRows(noRows())

	err := f.engine.AcknowledgeForDoctor(context.Background(), doctor, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAcknowledgeForDoctor_AssignedAlert(t *testing.T) {
	f := newFixture(t)
	doctor := Principal{AccountID: "DOC0000001", Role: model.RoleDoctor}

	expectDoctorKey(f.mock, "DOC0000001", 3)
	f.mock.ExpectQuery("FROM alerts WHERE alert_id").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(alertCols).AddRow(5, 7, "Abnormal Reading", "x", 135.0, fixedNow, "UNREAD"))
	f.mock.ExpectQuery("SELECT 1 FROM patients WHERE patient_pk").WithArgs(uint64(7), uint64(3)).
		WillReturnRows(oneRow())
	f.mock.ExpectExec("UPDATE alerts SET status='READ'").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, f.engine.AcknowledgeForDoctor(context.Background(), doctor, 5))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
