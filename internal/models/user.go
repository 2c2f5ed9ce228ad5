package models

import "time"

// UserRole represents the role hierarchy of the tutoring center.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleTeacher UserRole = "TEACHER"
	RoleAdmin   UserRole = "ADMIN"
)

// IsStudent reports whether the role is subject to no-show policy and
// attendance tracking. Teachers and admins may reserve seats but are exempt.
func (r UserRole) IsStudent() bool {
	return r == RoleStudent
}

// User holds both students and teachers; the role decides which reservation
// rules apply.
type User struct {
	ID       string   `db:"id" json:"id"`
	Username string   `db:"username" json:"username"`
	Name     string   `db:"name" json:"name"`
	PhoneNum string   `db:"phone_num" json:"phone_num,omitempty"`
	Role     UserRole `db:"role" json:"role"`
	School   *string  `db:"school" json:"school,omitempty"`
	Grade    *string  `db:"grade" json:"grade,omitempty"`

	// NoShowCount is the penalty counter gating reservation eligibility.
	// Never negative; mutated only by attendance transitions and weekly decay.
	NoShowCount int `db:"no_show_count" json:"no_show_count"`

	// MandatoryClinic marks students required to attend a clinic this week.
	// Cleared when they reserve one.
	MandatoryClinic bool `db:"mandatory_clinic" json:"mandatory_clinic"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
