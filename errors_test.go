package sqlkit

import (
	"errors"
	"fmt"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestBindingArityError_Message(t *testing.T) {
	err := &BindingArityError{Want: 3, Got: 1}
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "1")
}

func TestTxAbortedError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &TxAbortedError{Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "root cause")
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrClassUnknown},
		{"plain", errors.New("whatever"), ErrClassUnknown},
		{"binding", &BindingArityError{Want: 2, Got: 1}, ErrClassBinding},
		{"wrapped binding", fmt.Errorf("outer: %w", &BindingArityError{Want: 2, Got: 1}), ErrClassBinding},
		{"tx aborted", &TxAbortedError{Cause: errors.New("x")}, ErrClassTxAborted},
		{"duplicate key", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, ErrClassConstraint},
		{"fk parent missing", &mysql.MySQLError{Number: 1452, Message: "Cannot add"}, ErrClassConstraint},
		{"other mysql", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, ErrClassUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestErrorClass_String(t *testing.T) {
	assert.NotEmpty(t, ErrClassUnknown.String())
	assert.NotEqual(t, ErrClassBinding.String(), ErrClassConstraint.String())
}
