package models

import "time"

// Weekday identifies the recurring day of a clinic in ISO order.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

// WeekdayOrder is the fixed ISO ordering used for the schedule grid and for
// occurrence-date math.
var WeekdayOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ISOIndex returns the ISO weekday index (Monday = 0). Unknown values map to
// Monday so occurrence math never fails on bad data.
func (w Weekday) ISOIndex() int {
	for i, day := range WeekdayOrder {
		if day == w {
			return i
		}
	}
	return 0
}

// Valid reports whether the weekday is one of the supported values.
func (w Weekday) Valid() bool {
	for _, day := range WeekdayOrder {
		if day == w {
			return true
		}
	}
	return false
}

// Clinic is a weekly recurring supplementary-lesson slot with a fixed room,
// time and seat capacity. The roster lives in the clinic_students join table;
// the invariant len(roster) <= Capacity holds even under concurrent writers.
type Clinic struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Day       Weekday   `db:"day" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	Room      string    `db:"room" json:"room"`
	Capacity  int       `db:"capacity" json:"capacity"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClinicDetail extends a clinic with joined display names.
type ClinicDetail struct {
	Clinic
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// RosterMember is one reservation holder on a clinic's roster.
type RosterMember struct {
	StudentID string `db:"student_id" json:"id"`
	Name      string `db:"name" json:"name"`
	Username  string `db:"username" json:"username"`
}

// ClinicSummary is the slot representation returned by reservation responses.
type ClinicSummary struct {
	ID             string  `json:"id"`
	Day            Weekday `json:"day"`
	StartTime      string  `json:"start_time"`
	Room           string  `json:"room"`
	SubjectName    string  `json:"subject"`
	TeacherName    string  `json:"teacher"`
	Capacity       int     `json:"capacity"`
	CurrentCount   int     `json:"current_count"`
	RemainingSpots int     `json:"remaining_spots"`
}
