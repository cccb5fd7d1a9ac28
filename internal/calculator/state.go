// Package calculator implements the RPN stack engine of an HP-12C style
// financial calculator. A State is a plain value; the Engine turns a State
// and a key press into the next State.
package calculator

import (
	"encoding/json"
	"math"

	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/format"
	"github.com/iwvelando/hp12c/pkg/mathutil"
	"github.com/iwvelando/hp12c/pkg/tvm"
)

// Shift is the modifier applied to the next key press.
type Shift int

// Shift states. Pressing f or g again returns to ShiftNone.
const (
	ShiftNone Shift = iota
	ShiftF
	ShiftG
)

func (s Shift) String() string {
	switch s {
	case ShiftF:
		return "f"
	case ShiftG:
		return "g"
	}
	return "none"
}

// Pending records a STO or RCL that is waiting for its register key.
type Pending int

// Pending register operations.
const (
	PendingNone Pending = iota
	PendingStore
	PendingRecall
)

func (p Pending) String() string {
	switch p {
	case PendingStore:
		return "sto"
	case PendingRecall:
		return "rcl"
	}
	return "none"
}

// Stack register indexes.
const (
	X = iota
	Y
	Z
	T
)

// State is the complete calculator state. It is copied by value; slices are
// deliberately absent so that copies never alias.
type State struct {
	Stack     [constants.StackSize]float64
	LastX     float64
	Memory    tvm.Memory
	Registers [constants.StorageRegisters]float64
	// Entry is the literal being keyed in while Entering is true. Stack[X]
	// always holds its parsed value.
	Entry     string
	Entering  bool
	Shift     Shift
	Pending   Pending
	Precision int
	On        bool
}

// NewState returns a powered-on state with everything zeroed.
func NewState(precision int) State {
	return State{
		Precision: format.ClampPrecision(precision),
		On:        true,
	}
}

// X returns the value in the X register.
func (s State) X() float64 {
	return s.Stack[X]
}

// IsError reports whether X holds the error sentinel.
func (s State) IsError() bool {
	return !mathutil.IsFinite(s.Stack[X])
}

// Display renders the display string. It is empty when off and shows the
// locale-grouped literal while one is being keyed in. Otherwise it shows X
// at the current precision, or the error marker for the sentinel.
func (s State) Display(f *format.Formatter) string {
	if !s.On {
		return ""
	}
	if s.Entering {
		return f.FormatEntry(s.Entry)
	}
	return f.Format(s.Stack[X], s.Precision)
}

// Value is a float64 that encodes non-finite values as JSON null.
type Value float64

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Snapshot is the externally visible view of a State: the formatted display,
// the raw register values and the indicators a keypad UI renders.
type Snapshot struct {
	Display   string                              `json:"display"`
	X         Value                               `json:"x"`
	Stack     [constants.StackSize]Value          `json:"stack"`
	LastX     Value                               `json:"lastX"`
	Error     bool                                `json:"error"`
	Precision int                                 `json:"precision"`
	Shift     string                              `json:"shift"`
	Pending   string                              `json:"pending,omitempty"`
	Entering  bool                                `json:"entering"`
	Entry     string                              `json:"entry,omitempty"`
	On        bool                                `json:"on"`
	Memory    tvm.Memory                          `json:"memory"`
	Registers [constants.StorageRegisters]float64 `json:"registers"`
}

// Snapshot builds the external view of s using f for the display.
func (s State) Snapshot(f *format.Formatter) Snapshot {
	snap := Snapshot{
		Display:   s.Display(f),
		X:         Value(s.Stack[X]),
		LastX:     Value(s.LastX),
		Error:     s.IsError(),
		Precision: s.Precision,
		Shift:     s.Shift.String(),
		Entering:  s.Entering,
		On:        s.On,
		Memory:    s.Memory,
		Registers: s.Registers,
	}
	if s.Pending != PendingNone {
		snap.Pending = s.Pending.String()
	}
	if s.Entering {
		snap.Entry = s.Entry
	}
	for i, v := range s.Stack {
		snap.Stack[i] = Value(v)
	}
	return snap
}
