// Package args normalizes the positional arguments of command operations
// against a per-operation Format. Optional slots are consumed only when the
// argument in front of them has the right shape, so an operation can be called
// both as op(x, cb) and op(batch, x, cb).
package args

import (
	"fmt"
	"reflect"

	"github.com/vanshika/graphlink/internal/dispatch"
)

// Kind is the expected shape of a slot.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindObject
	KindBool
	KindCallback
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindBool:
		return "boolean"
	case KindCallback:
		return "callback"
	case KindBatch:
		return "batch"
	default:
		return "value"
	}
}

// Slot describes one positional parameter.
type Slot struct {
	Name     string
	Kind     Kind
	Optional bool
	// Accept narrows the kind check, e.g. to one callback signature. Required
	// for KindCallback slots.
	Accept func(v any) bool
}

// Format is the ordered parameter list of one operation.
type Format struct {
	Op    string
	Slots []Slot
}

// Values maps slot names to the arguments they consumed.
type Values map[string]any

// ValidationError reports a call that does not fit its Format.
type ValidationError struct {
	Op     string
	Slot   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Slot == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: argument %q %s", e.Op, e.Slot, e.Reason)
}

// Parse matches raw against f from left to right.
func Parse(raw []any, f Format) (Values, error) {
	out := make(Values, len(f.Slots))
	i := 0
	for _, slot := range f.Slots {
		if i < len(raw) && slot.matches(raw[i]) {
			out[slot.Name] = raw[i]
			i++
			continue
		}
		if slot.Optional {
			continue
		}
		if i >= len(raw) {
			return nil, &ValidationError{Op: f.Op, Slot: slot.Name, Reason: "is missing"}
		}
		return nil, &ValidationError{
			Op:     f.Op,
			Slot:   slot.Name,
			Reason: fmt.Sprintf("must be a %s, got %T", slot.Kind, raw[i]),
		}
	}
	if i < len(raw) {
		return nil, &ValidationError{Op: f.Op, Reason: fmt.Sprintf("%d unexpected trailing argument(s)", len(raw)-i)}
	}
	return out, nil
}

func (s Slot) matches(v any) bool {
	if !s.Kind.matches(v) {
		return false
	}
	if s.Accept != nil {
		return s.Accept(v)
	}
	return true
}

func (k Kind) matches(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindBatch:
		_, ok := v.(*dispatch.Batch)
		return ok
	case KindCallback:
		// the concrete signature is checked by Slot.Accept; a typed nil func
		// would otherwise panic on the queue goroutine
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Func && !rv.IsNil()
	default:
		return v != nil
	}
}

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

func (v Values) Object(name string) map[string]any {
	m, _ := v[name].(map[string]any)
	return m
}

// Batch returns the batch handle, or nil when the slot was absent.
func (v Values) Batch(name string) *dispatch.Batch {
	b, _ := v[name].(*dispatch.Batch)
	return b
}

func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}
