package models

import "time"

// Booking represents one scheduled class occurrence.
type Booking struct {
	RegistrationID int64     `bson:"registration_id" json:"registrationId"` // Caller supplied, unique among live bookings
	StudentID      int64     `bson:"student_id" json:"studentId"`
	InstructorID   int64     `bson:"instructor_id" json:"instructorId"`
	ClassTypeID    int64     `bson:"class_type_id" json:"classTypeId"`
	StartTime      time.Time `bson:"start_time" json:"startTime"`
	EndTime        time.Time `bson:"end_time" json:"endTime"` // StartTime + class duration
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

// EntityID returns the id the booking carries for the given kind.
func (b Booking) EntityID(kind EntityKind) int64 {
	switch kind {
	case EntityStudent:
		return b.StudentID
	case EntityInstructor:
		return b.InstructorID
	case EntityClassType:
		return b.ClassTypeID
	default:
		return 0
	}
}

// BookingFilter narrows reporting reads. Zero values mean "no bound".
type BookingFilter struct {
	From         *time.Time
	To           *time.Time
	InstructorID int64
}

// BookingQuery is the raw reporting filter as it arrives from the host.
type BookingQuery struct {
	StartDate    string `form:"startDate" json:"startDate"`
	EndDate      string `form:"endDate" json:"endDate"`
	InstructorID string `form:"instructorId" json:"instructorId"`
}

// Schedule is a booking with its directory records resolved, as returned by
// the schedule listing.
type Schedule struct {
	Booking    `bson:",inline"`
	Student    Student    `json:"student"`
	Instructor Instructor `json:"instructor"`
	ClassType  ClassType  `json:"classType"`
}
