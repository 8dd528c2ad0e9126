package directoryRepo

import (
	"context"

	"classched/models"
)

// Directory resolves ids to named students, instructors and class types.
type Directory interface {
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
	// InstructorNames returns names for the given ids. Unknown ids are absent from the result.
	InstructorNames(ctx context.Context, ids []int64) (map[int64]string, error)
	StudentNames(ctx context.Context, ids []int64) (map[int64]string, error)
	ClassTypeNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Roster is a set of directory records, used for seeding.
type Roster struct {
	Students    []models.Student
	Instructors []models.Instructor
	ClassTypes  []models.ClassType
}

// DefaultRoster is the sample data loaded by the seed tool and the memory backend.
func DefaultRoster() Roster {
	return Roster{
		Students: []models.Student{
			{ID: 1, Name: "Student A"},
			{ID: 2, Name: "Student B"},
		},
		Instructors: []models.Instructor{
			{ID: 1, Name: "Instructor X"},
			{ID: 2, Name: "Instructor Y"},
		},
		ClassTypes: []models.ClassType{
			{ID: 1, Name: "Math"},
			{ID: 2, Name: "Science"},
		},
	}
}
