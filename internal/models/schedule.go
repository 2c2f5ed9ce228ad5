package models

// ScheduleCell is one day×time slot of the weekly grid. Empty slots keep the
// zero shape so clients can render a stable grid.
type ScheduleCell struct {
	ClinicID       *string        `json:"clinic_id"`
	TeacherName    *string        `json:"teacher_name"`
	Subject        *string        `json:"subject"`
	Room           *string        `json:"room"`
	Capacity       int            `json:"capacity"`
	CurrentCount   int            `json:"current_count"`
	RemainingSpots int            `json:"remaining_spots"`
	IsFull         bool           `json:"is_full"`
	Students       []RosterMember `json:"students"`
}

// WeeklySchedule is the day×time grid served to schedule clients. Days and
// Times enumerate the axes in render order.
type WeeklySchedule struct {
	Schedule     map[Weekday]map[string]ScheduleCell `json:"schedule"`
	Days         []Weekday                           `json:"days"`
	Times        []string                            `json:"times"`
	TotalClinics int                                 `json:"total_clinics"`
}
