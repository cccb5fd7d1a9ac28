package calculator

import (
	"strconv"

	"github.com/iwvelando/hp12c/pkg/tvm"
)

// OpKind tags the operation a key press resolves to.
type OpKind int

// Operation kinds.
const (
	OpNone OpKind = iota
	OpPower
	OpShift
	OpDigit
	OpSetPrecision
	OpEnter
	OpLastX
	OpBinary
	OpUnary
	OpChangeSign
	OpPercent
	OpSwap
	OpRollDown
	OpClearX
	OpClearAll
	OpClearFinancial
	OpStorePending
	OpRecallPending
	OpStoreRegister
	OpRecallRegister
	OpStoreFinancial
	OpRecallFinancial
	OpConvertFinancial
	OpSolveFinancial
)

// Binary is a two operand function computing y OP x.
type Binary int

// Binary operators.
const (
	Add Binary = iota
	Subtract
	Multiply
	Divide
	Power
)

var binaryLabels = [...]string{"+", "-", "×", "÷", "yˣ"}

func (b Binary) String() string { return binaryLabels[b] }

// Unary is a one operand function replacing X.
type Unary int

// Unary functions.
const (
	Reciprocal Unary = iota
	SquareRoot
	NaturalLog
	Exponential
	Factorial
	FractionalPart
	IntegerPart
)

var unaryLabels = [...]string{"1/x", "√x", "LN", "eˣ", "n!", "FRAC", "INTG"}

func (u Unary) String() string { return unaryLabels[u] }

// Percent is one of the percentage functions. They read X and Y and replace
// X without dropping the stack.
type Percent int

// Percentage functions.
const (
	PercentOf Percent = iota
	PercentChange
	PercentTotal
)

var percentLabels = [...]string{"%", "Δ%", "%T"}

func (p Percent) String() string { return percentLabels[p] }

// Op is the resolved meaning of a key press. Only the fields relevant to Kind
// are set.
type Op struct {
	Kind    OpKind
	Digit   byte
	Shift   Shift
	Binary  Binary
	Unary   Unary
	Percent Percent
	Target  tvm.Target
	Index   int
}

// Label names the operation for history and logs.
func (op Op) Label() string {
	switch op.Kind {
	case OpBinary:
		return op.Binary.String()
	case OpUnary:
		return op.Unary.String()
	case OpPercent:
		return op.Percent.String()
	case OpChangeSign:
		return "CHS"
	case OpLastX:
		return "LSTx"
	case OpSolveFinancial, OpRecallFinancial:
		return op.Target.String()
	case OpConvertFinancial:
		if op.Target == tvm.N {
			return "12×"
		}
		if op.Target == tvm.I {
			return "12÷"
		}
		return op.Target.String()
	case OpRecallRegister:
		return "RCL " + strconv.Itoa(op.Index)
	}
	return ""
}

// producesResult reports whether the operation computes a new X worth
// recording in the calculation history.
func (op Op) producesResult() bool {
	switch op.Kind {
	case OpBinary, OpUnary, OpPercent, OpSolveFinancial, OpConvertFinancial:
		return true
	}
	return false
}

// Resolve maps a key press to an operation using the current shift, pending
// register operation, entry mode and power state. It is the single place
// where shifted key meanings are decided.
func Resolve(s State, k Key) Op {
	if k == KeyOn {
		return Op{Kind: OpPower}
	}
	if !s.On {
		return Op{Kind: OpNone}
	}

	if s.Pending != PendingNone {
		if op, ok := resolvePending(s.Pending, k); ok {
			return op
		}
	}

	if k.IsDigit() {
		if s.Shift == ShiftF {
			return Op{Kind: OpSetPrecision, Index: int(k)}
		}
		return Op{Kind: OpDigit, Digit: byte('0' + int(k))}
	}

	if target, ok := k.Target(); ok {
		switch {
		case s.Shift == ShiftG:
			return Op{Kind: OpConvertFinancial, Target: target}
		case s.Entering:
			return Op{Kind: OpStoreFinancial, Target: target}
		default:
			return Op{Kind: OpSolveFinancial, Target: target}
		}
	}

	g := s.Shift == ShiftG
	switch k {
	case KeyDot:
		return Op{Kind: OpDigit, Digit: '.'}
	case KeyEnter:
		if g {
			return Op{Kind: OpLastX}
		}
		return Op{Kind: OpEnter}
	case KeyAdd:
		return Op{Kind: OpBinary, Binary: Add}
	case KeySubtract:
		return Op{Kind: OpBinary, Binary: Subtract}
	case KeyMultiply:
		return Op{Kind: OpBinary, Binary: Multiply}
	case KeyDivide:
		return Op{Kind: OpBinary, Binary: Divide}
	case KeyPower:
		switch s.Shift {
		case ShiftG:
			return Op{Kind: OpUnary, Unary: Exponential}
		case ShiftF:
			return Op{Kind: OpUnary, Unary: Factorial}
		}
		return Op{Kind: OpBinary, Binary: Power}
	case KeyReciprocal:
		if g {
			return Op{Kind: OpUnary, Unary: SquareRoot}
		}
		return Op{Kind: OpUnary, Unary: Reciprocal}
	case KeyPercentTotal:
		if g {
			return Op{Kind: OpUnary, Unary: NaturalLog}
		}
		return Op{Kind: OpPercent, Percent: PercentTotal}
	case KeyDeltaPercent:
		if g {
			return Op{Kind: OpUnary, Unary: FractionalPart}
		}
		return Op{Kind: OpPercent, Percent: PercentChange}
	case KeyPercent:
		if g {
			return Op{Kind: OpUnary, Unary: IntegerPart}
		}
		return Op{Kind: OpPercent, Percent: PercentOf}
	case KeyCHS:
		return Op{Kind: OpChangeSign}
	case KeySwap:
		if s.Shift == ShiftF {
			return Op{Kind: OpClearFinancial}
		}
		return Op{Kind: OpSwap}
	case KeyRollDown:
		return Op{Kind: OpRollDown}
	case KeyClx:
		if s.Shift != ShiftNone {
			return Op{Kind: OpClearAll}
		}
		return Op{Kind: OpClearX}
	case KeySTO:
		return Op{Kind: OpStorePending}
	case KeyRCL:
		return Op{Kind: OpRecallPending}
	case KeyF:
		return Op{Kind: OpShift, Shift: ShiftF}
	case KeyG:
		return Op{Kind: OpShift, Shift: ShiftG}
	}
	return Op{Kind: OpNone}
}

// resolvePending completes a STO or RCL with a register key. Any other key
// cancels the pending operation and is resolved normally.
func resolvePending(p Pending, k Key) (Op, bool) {
	if k.IsDigit() {
		if p == PendingStore {
			return Op{Kind: OpStoreRegister, Index: int(k)}, true
		}
		return Op{Kind: OpRecallRegister, Index: int(k)}, true
	}
	if target, ok := k.Target(); ok {
		if p == PendingStore {
			return Op{Kind: OpStoreFinancial, Target: target}, true
		}
		return Op{Kind: OpRecallFinancial, Target: target}, true
	}
	return Op{}, false
}
