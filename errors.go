package sqlkit

import (
	"errors"
	"fmt"

	mysql "github.com/go-sql-driver/mysql"
)

// BindingArityError reports a mismatch between the number of positional
// placeholders in a statement and the number of bound parameters.
// No partial bind is attempted past the point of failure.
type BindingArityError struct {
	Want int // placeholders in the statement text
	Got  int // parameters supplied
}

func (e *BindingArityError) Error() string {
	return fmt.Sprintf("parameter count mismatch: statement has %d placeholders, got %d parameters", e.Want, e.Got)
}

// TxAbortedError marks a unit of work that triggered a rollback.
// The session manager uses it internally for the rollback signal path
// (panic payloads, rollback logging); the original failure is still what
// reaches the caller, never this wrapper.
type TxAbortedError struct {
	Cause error
}

func (e *TxAbortedError) Error() string {
	if e.Cause == nil {
		return "transaction aborted"
	}
	return "transaction aborted: " + e.Cause.Error()
}

func (e *TxAbortedError) Unwrap() error { return e.Cause }

// ErrorClass groups failures by how callers should react to them.
type ErrorClass int

const (
	ErrClassUnknown ErrorClass = iota
	ErrClassBinding
	ErrClassTxAborted
	ErrClassConstraint
)

func (c ErrorClass) String() string {
	switch c {
	case ErrClassBinding:
		return "binding"
	case ErrClassTxAborted:
		return "tx-aborted"
	case ErrClassConstraint:
		return "constraint"
	}
	return "unknown"
}

// Classify maps an error to its class. Driver execution errors pass through
// this layer unchanged, so classification works on the original error values.
func Classify(err error) ErrorClass {
	var arity *BindingArityError
	if errors.As(err, &arity) {
		return ErrClassBinding
	}
	var aborted *TxAbortedError
	if errors.As(err, &aborted) {
		return ErrClassTxAborted
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062, 1216, 1217, 1451, 1452:
			return ErrClassConstraint
		}
	}
	return ErrClassUnknown
}
