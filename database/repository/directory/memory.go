package directoryRepo

import (
	"context"
	"sort"
	"sync"

	"classched/models"
)

// MemoryDirectory serves directory lookups from an in-process roster.
type MemoryDirectory struct {
	mu          sync.RWMutex
	students    map[int64]string
	instructors map[int64]models.Instructor
	classTypes  map[int64]string
}

func NewMemoryDirectory(roster Roster) *MemoryDirectory {
	d := &MemoryDirectory{
		students:    make(map[int64]string, len(roster.Students)),
		instructors: make(map[int64]models.Instructor, len(roster.Instructors)),
		classTypes:  make(map[int64]string, len(roster.ClassTypes)),
	}
	for _, st := range roster.Students {
		d.students[st.ID] = st.Name
	}
	for _, in := range roster.Instructors {
		d.instructors[in.ID] = in
	}
	for _, ct := range roster.ClassTypes {
		d.classTypes[ct.ID] = ct.Name
	}
	return d
}

func (d *MemoryDirectory) ListInstructors(_ context.Context) ([]models.Instructor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Instructor, 0, len(d.instructors))
	for _, in := range d.instructors {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *MemoryDirectory) InstructorNames(_ context.Context, ids []int64) (map[int64]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if in, ok := d.instructors[id]; ok {
			names[id] = in.Name
		}
	}
	return names, nil
}

func (d *MemoryDirectory) StudentNames(_ context.Context, ids []int64) (map[int64]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return pick(d.students, ids), nil
}

func (d *MemoryDirectory) ClassTypeNames(_ context.Context, ids []int64) (map[int64]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return pick(d.classTypes, ids), nil
}

func pick(src map[int64]string, ids []int64) map[int64]string {
	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if name, ok := src[id]; ok {
			names[id] = name
		}
	}
	return names
}
