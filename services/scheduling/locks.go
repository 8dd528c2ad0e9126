package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"classched/models"
)

// Locker provides mutual exclusion over a set of keys. Lock acquires every
// key or none; the returned func releases them.
type Locker interface {
	Lock(ctx context.Context, keys []string) (unlock func(), err error)
}

func registrationKey(registrationID int64) string {
	return fmt.Sprintf("registration:%d", registrationID)
}

func entityDayKey(kind models.EntityKind, entityID int64, day time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s:%d:%s", kind, entityID, dayLabel(day, loc))
}

// slotKeys returns the entity-day buckets a booking at start occupies.
func slotKeys(studentID, instructorID, classTypeID int64, start time.Time, loc *time.Location) []string {
	return []string{
		entityDayKey(models.EntityStudent, studentID, start, loc),
		entityDayKey(models.EntityInstructor, instructorID, start, loc),
		entityDayKey(models.EntityClassType, classTypeID, start, loc),
	}
}

func bookingKeys(b *models.Booking, loc *time.Location) []string {
	if b == nil {
		return nil
	}
	return slotKeys(b.StudentID, b.InstructorID, b.ClassTypeID, b.StartTime, loc)
}

// normalizeKeys sorts and dedupes keys. Every locker acquires in this order,
// which rules out lock-order deadlocks between rows.
func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LocalLocker is an in-process Locker. Entries are reference counted and
// dropped once no goroutine holds or waits on them.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*localEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = normalizeKeys(keys)
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := l.acquire(ctx, key); err != nil {
			l.releaseAll(held)
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

func (l *LocalLocker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key, entry)
		return ctx.Err()
	}
}

func (l *LocalLocker) releaseAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		entry := l.entries[keys[i]]
		l.mu.Unlock()
		<-entry.sem
		l.unref(keys[i], entry)
	}
}

func (l *LocalLocker) unref(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}
