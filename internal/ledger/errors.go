package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrValidation  = errors.New("ledger: validation failed")
	ErrNotFound    = errors.New("ledger: not found")
	ErrOverpayment = errors.New("ledger: overpayment")
	ErrPersistence = errors.New("ledger: persistence failure")
)

// ValidationError reports malformed or out of range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing invoice, payment or project.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError. Stores use it for missing rows.
func NotFound(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// OverpaymentError reports a mutation that would push paid above total.
type OverpaymentError struct {
	InvoiceID uuid.UUID
	Total     decimal.Decimal
	Paid      decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("invoice %s would be overpaid: paid %s exceeds total %s",
		e.InvoiceID, e.Paid.StringFixed(2), e.Total.StringFixed(2))
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// PersistenceError wraps a storage failure during a transactional step.
// Nothing of the failed operation is committed.
type PersistenceError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// IsRetryable reports whether err is a persistence failure worth retrying.
func IsRetryable(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Retryable
}

// persistence wraps store errors that are not already part of the taxonomy.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOverpayment) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
