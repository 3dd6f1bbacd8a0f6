package sqlkit

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"time"
)

// Optional wraps a value that may be absent. An absent Optional binds and
// renders as NULL; a present Optional resolves to its wrapped value,
// recursively, since Optionals can nest.
type Optional struct {
	value   any
	present bool
}

// Some returns a present Optional wrapping v.
func Some(v any) Optional { return Optional{value: v, present: true} }

// None returns an absent Optional.
func None() Optional { return Optional{} }

// Get returns the wrapped value and whether it is present.
func (o Optional) Get() (any, bool) { return o.value, o.present }

// normalizeParam resolves Optional nesting down to the wrapped value, or nil
// for an absent Optional. The binder and the trace renderer share this so
// what is bound and what is logged never diverge.
func normalizeParam(v any) any {
	for {
		opt, ok := v.(Optional)
		if !ok {
			return v
		}
		if !opt.present {
			return nil
		}
		v = opt.value
	}
}

// decimalRatScale is the decimal precision used when binding *big.Rat values.
const decimalRatScale = 12

// ParamKind identifies which binding path a parameter value took.
type ParamKind int

const (
	KindNull ParamKind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindBytes
	KindTime
	KindURL
	KindDriverValue
	KindOpaque
)

func (k ParamKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindURL:
		return "url"
	case KindDriverValue:
		return "driver"
	case KindOpaque:
		return "opaque"
	}
	return "unknown"
}

// bindValue normalizes one application value and converts it to the
// representation handed to the driver, reporting which path it took.
// Unrecognized types fall back to the opaque path and are passed through
// unchanged for the driver to reject or accept.
func bindValue(v any) (any, ParamKind) {
	switch x := normalizeParam(v).(type) {
	case nil:
		return nil, KindNull
	case bool:
		return x, KindBool
	case int:
		return x, KindInt
	case int8:
		return x, KindInt
	case int16:
		return x, KindInt
	case int32:
		return x, KindInt
	case int64:
		return x, KindInt
	case uint:
		return x, KindInt
	case uint8:
		return x, KindInt
	case uint16:
		return x, KindInt
	case uint32:
		return x, KindInt
	case uint64:
		return x, KindInt
	case float32:
		return x, KindFloat
	case float64:
		return x, KindFloat
	case *big.Int:
		if x == nil {
			return nil, KindNull
		}
		return x.String(), KindDecimal
	case *big.Float:
		if x == nil {
			return nil, KindNull
		}
		return x.Text('f', -1), KindDecimal
	case *big.Rat:
		if x == nil {
			return nil, KindNull
		}
		return x.FloatString(decimalRatScale), KindDecimal
	case string:
		return x, KindString
	case []byte:
		if x == nil {
			return nil, KindNull
		}
		return x, KindBytes
	case time.Time:
		return x, KindTime
	case *time.Time:
		if x == nil {
			return nil, KindNull
		}
		return *x, KindTime
	case url.URL:
		return x.String(), KindURL
	case *url.URL:
		if x == nil {
			return nil, KindNull
		}
		return x.String(), KindURL
	case driver.Valuer:
		return x, KindDriverValue
	default:
		return x, KindOpaque
	}
}

// countPlaceholders counts positional `?` markers, ignoring any inside
// single- or double-quoted literals.
func countPlaceholders(query string) int {
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
		}
	}
	return n
}

// bindParams normalizes and converts one full parameter row for query.
// A placeholder/parameter count mismatch fails with *BindingArityError
// before any value is converted.
func bindParams(query string, args []any, logger *slog.Logger) ([]any, error) {
	if want := countPlaceholders(query); want != len(args) {
		return nil, &BindingArityError{Want: want, Got: len(args)}
	}
	out := make([]any, len(args))
	for i, a := range args {
		v, kind := bindValue(a)
		if kind == KindOpaque && logger != nil && logger.Enabled(context.Background(), slog.LevelDebug) {
			logger.LogAttrs(context.Background(), slog.LevelDebug, "binding parameter as opaque object",
				slog.Int("position", i+1),
				slog.String("type", fmt.Sprintf("%T", v)),
			)
		}
		out[i] = v
	}
	return out, nil
}

// StatementTemplate pairs immutable SQL text containing positional `?`
// placeholders with the ordered parameter values bound to it. In batch mode
// it additionally owns the ordered list of per-entry parameter rows, all
// aligned with the same text.
type StatementTemplate struct {
	SQL       string
	params    []any
	batch     [][]any
	batchMode bool
}

// NewStatement binds args to query and returns the template. The initial
// binding is also recorded as a batch entry so that a later EnableBatch can
// apply its clearing rule.
func NewStatement(query string, args ...any) (*StatementTemplate, error) {
	return newStatement(query, args, nil)
}

func newStatement(query string, args []any, logger *slog.Logger) (*StatementTemplate, error) {
	bound, err := bindParams(query, args, logger)
	if err != nil {
		return nil, err
	}
	return &StatementTemplate{
		SQL:    query,
		params: bound,
		batch:  [][]any{bound},
	}, nil
}

// NewBatchStatement binds primeArgs once to validate the template, then
// switches to batch mode. The priming bind is cleared from the batch list,
// so the batch reflects only entries added through AddBatch afterwards.
func NewBatchStatement(query string, primeArgs ...any) (*StatementTemplate, error) {
	st, err := NewStatement(query, primeArgs...)
	if err != nil {
		return nil, err
	}
	st.EnableBatch()
	return st, nil
}

// EnableBatch switches the template to batch mode and clears the accumulated
// batch list. Entries bound before this point, including the initial priming
// bind, do not execute and do not appear in batch traces.
func (st *StatementTemplate) EnableBatch() {
	st.batchMode = true
	st.batch = nil
}

// AddBatch validates and appends one parameter row. Only legal in batch mode.
func (st *StatementTemplate) AddBatch(args ...any) error {
	if !st.batchMode {
		return fmt.Errorf("sqlkit: AddBatch on non-batch statement")
	}
	bound, err := bindParams(st.SQL, args, nil)
	if err != nil {
		return err
	}
	st.batch = append(st.batch, bound)
	return nil
}

// Params returns the parameters of the initial binding.
func (st *StatementTemplate) Params() []any { return st.params }

// BatchSize returns the number of accumulated batch entries.
func (st *StatementTemplate) BatchSize() int { return len(st.batch) }

// IsBatch reports whether the template is in batch mode.
func (st *StatementTemplate) IsBatch() bool { return st.batchMode }
