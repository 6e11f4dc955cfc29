package attendance

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusLeave   = "leave"
)

// Record is one employee-day as captured by the attendance system.
type Record struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	EmployeeID     uuid.UUID `gorm:"column:employee_id;type:uuid;not null;index"`
	AttendanceDate time.Time `gorm:"column:attendance_date;type:date;not null;index"`
	Status         string    `gorm:"column:status;type:varchar(20);not null"`
	LateMinutes    int       `gorm:"column:late_minutes;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (Record) TableName() string {
	return "attendances"
}

func (r Record) IsAbsent() bool {
	return r.Status == StatusAbsent
}

// Within reports whether the record's day falls in [start, end], both inclusive.
func (r Record) Within(start, end time.Time) bool {
	d := dateOnly(r.AttendanceDate)
	return !d.Before(dateOnly(start)) && !d.After(dateOnly(end))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
