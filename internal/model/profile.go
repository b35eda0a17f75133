package model

// Patient is a row of the `patients` table.  Key is the internal primary
// key used by readings and alerts; AccountID is the external PID.
type Patient struct {
    Key              uint64  // patients.patient_pk
    AccountID        string  // patients.account_fk
    AssignedDoctorID *uint64 // patients.assigned_doctor_fk (nullable)
    FirstName        string  // patients.first_name
    LastName         string  // patients.last_name
    Address          string  // patients.address
}

// Doctor is a row of the `doctors` table.
type Doctor struct {
    Key       uint64 // doctors.doctor_pk
    AccountID string // doctors.account_fk
    FirstName string // doctors.first_name
    LastName  string // doctors.last_name
}

// PatientProfile is the self-service view of a patient: profile columns,
// the account email and the assigned doctor's name when there is one.
type PatientProfile struct {
    PatientID  string  `json:"patient_id"`
    FirstName  string  `json:"first_name"`
    LastName   string  `json:"last_name"`
    Email      string  `json:"email"`
    Address    string  `json:"address"`
    DoctorName *string `json:"assigned_doctor,omitempty"`
}
