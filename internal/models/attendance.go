package models

import "time"

// AttendanceType is the outcome of a clinic occurrence for one student.
type AttendanceType string

const (
	AttendanceNone     AttendanceType = "none"
	AttendanceAttended AttendanceType = "attended"
	AttendanceAbsent   AttendanceType = "absent"
	AttendanceSick     AttendanceType = "sick"
	AttendanceLate     AttendanceType = "late"
)

// Valid returns true when the outcome is a supported value.
func (t AttendanceType) Valid() bool {
	switch t {
	case AttendanceNone, AttendanceAttended, AttendanceAbsent, AttendanceSick, AttendanceLate:
		return true
	default:
		return false
	}
}

// ClinicAttendance records one student's expected and actual attendance for a
// single weekly occurrence of a clinic. The (clinic, student, expected_date)
// triple carries a uniqueness constraint; concurrent creators must reconcile
// via get-or-create rather than double-insert.
type ClinicAttendance struct {
	ID                 string         `db:"id" json:"id"`
	ClinicID           string         `db:"clinic_id" json:"clinic_id"`
	StudentID          string         `db:"student_id" json:"student_id"`
	ReservationDate    time.Time      `db:"reservation_date" json:"reservation_date"`
	ExpectedClinicDate time.Time      `db:"expected_clinic_date" json:"expected_clinic_date"`
	ActualDate         *time.Time     `db:"actual_date" json:"actual_date,omitempty"`
	Type               AttendanceType `db:"attendance_type" json:"attendance_type"`
	IsActive           bool           `db:"is_active" json:"is_active"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// ClinicAttendanceDetail extends a record with display metadata.
type ClinicAttendanceDetail struct {
	ClinicAttendance
	StudentName string  `db:"student_name" json:"student_name"`
	ClinicDay   Weekday `db:"clinic_day" json:"clinic_day"`
	ClinicTime  string  `db:"clinic_time" json:"clinic_time"`
	ClinicRoom  string  `db:"clinic_room" json:"clinic_room"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	ClinicID string
	Date     *time.Time
}
