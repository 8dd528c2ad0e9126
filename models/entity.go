package models

// EntityKind names the dimension a booking is counted against.
type EntityKind string

const (
	EntityStudent    EntityKind = "student"
	EntityInstructor EntityKind = "instructor"
	EntityClassType  EntityKind = "classType"
)

// EntityKinds lists every kind in the order quotas are evaluated.
var EntityKinds = []EntityKind{EntityStudent, EntityInstructor, EntityClassType}

// Instructor is a named directory entry for an instructor.
type Instructor struct {
	ID   int64  `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// Student is a named directory entry for a student.
type Student struct {
	ID   int64  `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// ClassType is a named directory entry for a kind of class.
type ClassType struct {
	ID   int64  `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// InstructorCount is one row of the per-instructor aggregation. The
// capitalised "Classes" key is what existing report consumers read.
type InstructorCount struct {
	Name    string `json:"name"`
	Classes int    `json:"Classes"`
}
