package scheduling

import (
	"context"
	"errors"
	"fmt"

	ledgerRepo "classched/database/repository/ledger"
	"classched/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxLockAttempts = 5

// Pipeline applies batches of registration rows against the ledger.
type Pipeline struct {
	ledger   ledgerRepo.Ledger
	resolver *ConflictResolver
	locker   Locker
	cfg      DailyQuotaConfig
	workers  int
	logger   *zap.Logger
}

// NewPipeline wires a pipeline. workers bounds how many rows run at once.
func NewPipeline(ledger ledgerRepo.Ledger, locker Locker, cfg DailyQuotaConfig, workers int, logger *zap.Logger) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		ledger:   ledger,
		resolver: NewConflictResolver(NewQuotaTracker(ledger, cfg), cfg),
		locker:   locker,
		cfg:      cfg,
		workers:  workers,
		logger:   logger,
	}
}

// IngestBatch processes rows and returns exactly one outcome per row, in
// input order. Rows run concurrently, except that rows sharing a
// registration id or an entity-day bucket run one after another in input
// order. No row failure stops the batch.
func (p *Pipeline) IngestBatch(ctx context.Context, rows []models.RowRecord) []models.RowOutcome {
	outcomes := make([]models.RowOutcome, len(rows))
	loc := p.cfg.location()

	var g errgroup.Group
	g.SetLimit(p.workers)

	tails := make(map[string]chan struct{})
	// lastSlot tracks the buckets a registration will occupy after the
	// earlier rows of this batch have run.
	lastSlot := make(map[int64][]string)

	for i, rec := range rows {
		row, err := parseRow(rec, loc)
		if err != nil {
			outcomes[i] = outcomeFor(rec.Line, row.registrationID, err, "")
			p.logger.Debug("row rejected during validation",
				zap.Int("line", rec.Line), zap.Error(err))
			continue
		}

		keys := []string{registrationKey(row.registrationID)}
		if row.action != models.ActionNew {
			prior, seen := lastSlot[row.registrationID]
			if !seen {
				prior = p.snapshotKeys(ctx, row.registrationID)
			}
			keys = append(keys, prior...)
		}
		if row.action == models.ActionDelete {
			lastSlot[row.registrationID] = []string{}
		} else {
			proposed := slotKeys(row.studentID, row.instructorID, row.classTypeID, row.startTime, loc)
			keys = append(keys, proposed...)
			lastSlot[row.registrationID] = proposed
		}

		var waits []chan struct{}
		for _, key := range normalizeKeys(keys) {
			if tail, ok := tails[key]; ok {
				waits = appendUnique(waits, tail)
			}
		}
		done := make(chan struct{})
		for _, key := range keys {
			tails[key] = done
		}

		g.Go(func() error {
			defer close(done)
			for _, w := range waits {
				<-w
			}
			outcomes[i] = p.processRow(ctx, row)
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

// snapshotKeys returns the buckets of the registration's live booking, if
// any. Lookup failures only cost ordering precision; the row itself will
// surface them.
func (p *Pipeline) snapshotKeys(ctx context.Context, registrationID int64) []string {
	booking, err := p.ledger.Get(ctx, registrationID)
	if err != nil {
		return nil
	}
	return bookingKeys(booking, p.cfg.location())
}

func appendUnique(waits []chan struct{}, ch chan struct{}) []chan struct{} {
	for _, w := range waits {
		if w == ch {
			return waits
		}
	}
	return append(waits, ch)
}

// ProcessRow validates and applies a single row on its own.
func (p *Pipeline) ProcessRow(ctx context.Context, rec models.RowRecord) models.RowOutcome {
	row, err := parseRow(rec, p.cfg.location())
	if err != nil {
		return outcomeFor(rec.Line, row.registrationID, err, "")
	}
	return p.processRow(ctx, row)
}

func (p *Pipeline) processRow(ctx context.Context, row parsedRow) models.RowOutcome {
	var (
		err     error
		message string
	)
	switch row.action {
	case models.ActionNew:
		err = p.withRegistration(ctx, row, p.applyNew)
		message = "class scheduled successfully"
	case models.ActionUpdate:
		err = p.withRegistration(ctx, row, p.applyUpdate)
		message = "class updated successfully"
	case models.ActionDelete:
		err = p.withRegistration(ctx, row, p.applyDelete)
		message = "class deleted successfully"
	default:
		err = newValidationError("action", "unknown action %q", row.action)
	}

	outcome := outcomeFor(row.line, row.registrationID, err, message)
	fields := []zap.Field{
		zap.Int("line", row.line),
		zap.Int64("registrationId", row.registrationID),
		zap.String("action", row.action),
		zap.String("status", string(outcome.Status)),
	}
	switch {
	case IsPersistence(err):
		p.logger.Error("row failed on storage", append(fields, zap.Error(err))...)
	case err != nil:
		p.logger.Debug("row not applied", append(fields, zap.String("reason", outcome.Message))...)
	default:
		p.logger.Debug("row applied", fields...)
	}
	return outcome
}

// withRegistration locks the registration together with every bucket it
// occupies now and the buckets the row proposes, then runs apply with the
// booking as seen under the lock (nil when there is none). If the booking
// moved between the unlocked read and the lock, it retries.
func (p *Pipeline) withRegistration(ctx context.Context, row parsedRow, apply func(context.Context, parsedRow, *models.Booking) error) error {
	loc := p.cfg.location()
	var proposed []string
	if row.action != models.ActionDelete {
		proposed = slotKeys(row.studentID, row.instructorID, row.classTypeID, row.startTime, loc)
	}

	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		before, err := p.lookup(ctx, row.registrationID)
		if err != nil {
			return err
		}

		keys := append([]string{registrationKey(row.registrationID)}, proposed...)
		keys = append(keys, bookingKeys(before, loc)...)
		unlock, err := p.locker.Lock(ctx, keys)
		if err != nil {
			return persistenceError("acquire schedule lock", err)
		}

		current, err := p.lookup(ctx, row.registrationID)
		if err != nil {
			unlock()
			return err
		}
		if !sameSlot(before, current) {
			unlock()
			continue
		}

		err = apply(ctx, row, current)
		unlock()
		return err
	}
	return persistenceError("acquire schedule lock",
		fmt.Errorf("registration %d kept changing while waiting for its lock", row.registrationID))
}

func (p *Pipeline) lookup(ctx context.Context, registrationID int64) (*models.Booking, error) {
	booking, err := p.ledger.Get(ctx, registrationID)
	if errors.Is(err, ledgerRepo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError("load booking", err)
	}
	return booking, nil
}

func sameSlot(a, b *models.Booking) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.StudentID == b.StudentID &&
		a.InstructorID == b.InstructorID &&
		a.ClassTypeID == b.ClassTypeID &&
		a.StartTime.Equal(b.StartTime)
}

func (p *Pipeline) applyNew(ctx context.Context, row parsedRow, existing *models.Booking) error {
	if existing != nil {
		return ledgerRepo.ErrDuplicateKey
	}

	decision, err := p.resolver.CanSchedule(ctx, row.proposal())
	if err != nil {
		return persistenceError("check schedule", err)
	}
	if !decision.Admissible {
		return decision.Err()
	}

	booking := p.bookingFor(row)
	if err := p.ledger.Create(ctx, &booking); err != nil {
		if errors.Is(err, ledgerRepo.ErrDuplicateKey) {
			return err
		}
		return persistenceError("create booking", err)
	}
	return nil
}

func (p *Pipeline) applyUpdate(ctx context.Context, row parsedRow, existing *models.Booking) error {
	if existing == nil {
		return &NotFoundError{RegistrationID: row.registrationID}
	}

	proposal := row.proposal()
	proposal.ExcludeRegistrationID = row.registrationID
	decision, err := p.resolver.CanSchedule(ctx, proposal)
	if err != nil {
		return persistenceError("check schedule", err)
	}
	if !decision.Admissible {
		return decision.Err()
	}

	booking := p.bookingFor(row)
	if err := p.ledger.Update(ctx, row.registrationID, &booking); err != nil {
		if errors.Is(err, ledgerRepo.ErrNotFound) {
			return &NotFoundError{RegistrationID: row.registrationID}
		}
		return persistenceError("update booking", err)
	}
	return nil
}

func (p *Pipeline) applyDelete(ctx context.Context, row parsedRow, existing *models.Booking) error {
	if existing == nil {
		return &NotFoundError{RegistrationID: row.registrationID}
	}
	if err := p.ledger.Delete(ctx, row.registrationID); err != nil {
		if errors.Is(err, ledgerRepo.ErrNotFound) {
			return &NotFoundError{RegistrationID: row.registrationID}
		}
		return persistenceError("delete booking", err)
	}
	return nil
}

func (p *Pipeline) bookingFor(row parsedRow) models.Booking {
	start := row.startTime
	return models.Booking{
		RegistrationID: row.registrationID,
		StudentID:      row.studentID,
		InstructorID:   row.instructorID,
		ClassTypeID:    row.classTypeID,
		StartTime:      start,
		EndTime:        start.Add(p.cfg.ClassDuration),
	}
}
