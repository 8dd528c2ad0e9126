package scheduling

import (
	"errors"
	"fmt"

	ledgerRepo "classched/database/repository/ledger"
	"classched/models"
)

// ValidationError reports a malformed or missing row field or filter value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an update or delete against an unknown registration.
type NotFoundError struct {
	RegistrationID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("registration %d not found", e.RegistrationID)
}

// RejectReason names the business rule that refused a booking.
type RejectReason string

const (
	ReasonStudentOverlap    RejectReason = "student overlap"
	ReasonInstructorOverlap RejectReason = "instructor overlap"
	ReasonStudentQuota      RejectReason = "student quota exceeded"
	ReasonInstructorQuota   RejectReason = "instructor quota exceeded"
	ReasonClassTypeQuota    RejectReason = "class type quota exceeded"
)

func quotaReason(kind models.EntityKind) RejectReason {
	switch kind {
	case models.EntityStudent:
		return ReasonStudentQuota
	case models.EntityInstructor:
		return ReasonInstructorQuota
	default:
		return ReasonClassTypeQuota
	}
}

// ConflictRejected is a business-rule outcome, not a system failure.
type ConflictRejected struct {
	Reason RejectReason
	Detail string
}

func (e *ConflictRejected) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// PersistenceError wraps a failure of the ledger, directory or lock backend.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

// outcomeFor converts a row error into its RowOutcome. A nil err is a success.
func outcomeFor(line int, registrationID int64, err error, successMessage string) models.RowOutcome {
	outcome := models.RowOutcome{Line: line, RegistrationID: registrationID}

	var (
		conflict *ConflictRejected
		notFound *NotFoundError
	)
	switch {
	case err == nil:
		outcome.Status = models.RowSuccess
		outcome.Message = successMessage
	case errors.As(err, &conflict):
		outcome.Status = models.RowRejected
		outcome.Message = conflict.Error()
	case errors.As(err, &notFound):
		outcome.Status = models.RowError
		outcome.Message = notFound.Error()
	case errors.Is(err, ledgerRepo.ErrDuplicateKey):
		outcome.Status = models.RowError
		outcome.Message = ledgerRepo.ErrDuplicateKey.Error()
	default:
		outcome.Status = models.RowError
		outcome.Message = err.Error()
	}
	return outcome
}
