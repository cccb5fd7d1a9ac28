package calculator

import (
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/format"
	"github.com/iwvelando/hp12c/pkg/mathutil"
	"github.com/iwvelando/hp12c/pkg/tvm"
	"go.uber.org/zap"
)

// Options configures an Engine.
type Options struct {
	// Precision is the display precision of a fresh or fully cleared state.
	Precision int
	// MaxEntryDigits caps the digits of a literal being keyed in.
	MaxEntryDigits int
	// DivideByZero is constants.DivideByZeroZero or constants.DivideByZeroError.
	DivideByZero string
	// Solver solves the financial registers; nil uses tvm.DefaultSolver.
	Solver *tvm.Solver
}

// Engine applies key presses to calculator states. It holds no state of its
// own, so one Engine may serve any number of states.
type Engine struct {
	opts   Options
	solver *tvm.Solver
	logger *zap.Logger
}

// NewEngine returns an Engine, substituting defaults for unset options.
func NewEngine(logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Precision = format.ClampPrecision(opts.Precision)
	if opts.MaxEntryDigits <= 0 {
		opts.MaxEntryDigits = constants.DefaultMaxEntryDigits
	}
	if opts.DivideByZero != constants.DivideByZeroError {
		opts.DivideByZero = constants.DivideByZeroZero
	}
	solver := opts.Solver
	if solver == nil {
		solver = tvm.NewSolver(logger, constants.DefaultSolverIterations, constants.DefaultSolverTolerance, constants.DefaultSolverGuess)
	}
	return &Engine{
		opts:   opts,
		solver: solver,
		logger: logger,
	}
}

// Options returns the normalized options of e.
func (e *Engine) Options() Options {
	return e.opts
}

// NewState returns the power-on state for e.
func (e *Engine) NewState() State {
	return NewState(e.opts.Precision)
}

// Apply returns the state that follows s when k is pressed.
func (e *Engine) Apply(s State, k Key) State {
	next, _ := e.Step(s, k)
	return next
}

// Step is Apply that also returns the operation the key resolved to.
func (e *Engine) Step(s State, k Key) (State, Op) {
	op := Resolve(s, k)
	next := e.apply(s, op)
	if !s.IsError() && next.IsError() {
		e.logger.Debug("operation produced the error sentinel",
			zap.String("op", "calculator.Step"),
			zap.String("key", k.String()),
			zap.String("operation", op.Label()),
		)
	}
	return next, op
}

func (e *Engine) apply(s State, op Op) State {
	switch op.Kind {
	case OpNone:
		return s
	case OpPower:
		s.On = !s.On
		s.Shift = ShiftNone
		s.Pending = PendingNone
		return s
	case OpShift:
		if s.Shift == op.Shift {
			s.Shift = ShiftNone
		} else {
			s.Shift = op.Shift
		}
		s.Pending = PendingNone
		return s
	case OpDigit:
		return e.digit(s, op.Digit)
	case OpChangeSign:
		s = changeSign(s)
		return settle(s)
	case OpStorePending:
		s = commit(s)
		s.Shift = ShiftNone
		s.Pending = PendingStore
		return s
	case OpRecallPending:
		s = commit(s)
		s.Shift = ShiftNone
		s.Pending = PendingRecall
		return s
	}

	s = commit(s)
	switch op.Kind {
	case OpSetPrecision:
		s.Precision = format.ClampPrecision(op.Index)
	case OpEnter:
		s = lift(s)
	case OpLastX:
		last := s.LastX
		s = lift(s)
		s.Stack[X] = last
	case OpBinary:
		s = e.binary(s, op.Binary)
	case OpUnary:
		s = unary(s, op.Unary)
	case OpPercent:
		s = percent(s, op.Percent)
	case OpSwap:
		s.Stack[X], s.Stack[Y] = s.Stack[Y], s.Stack[X]
	case OpRollDown:
		s.Stack = [constants.StackSize]float64{s.Stack[Y], s.Stack[Z], s.Stack[T], s.Stack[X]}
	case OpClearX:
		s.Stack[X] = 0
	case OpClearAll:
		s = e.NewState()
	case OpClearFinancial:
		s.Memory = tvm.Memory{}
	case OpStoreRegister:
		if !s.IsError() {
			s.Registers[op.Index] = s.Stack[X]
		}
	case OpRecallRegister:
		val := s.Registers[op.Index]
		s = lift(s)
		s.Stack[X] = val
	case OpStoreFinancial:
		if !s.IsError() {
			s.Memory = s.Memory.Set(op.Target, s.Stack[X])
		}
	case OpRecallFinancial:
		val := s.Memory.Get(op.Target)
		s = lift(s)
		s.Stack[X] = val
	case OpConvertFinancial:
		s = convertFinancial(s, op.Target)
	case OpSolveFinancial:
		s = e.solveFinancial(s, op.Target)
	}
	return settle(s)
}

// settle clears the one-shot modifiers after an operation.
func settle(s State) State {
	s.Shift = ShiftNone
	s.Pending = PendingNone
	return s
}

// commit ends digit entry, leaving the parsed literal in X.
func commit(s State) State {
	s.Entering = false
	s.Entry = ""
	return s
}

// lift pushes X up the stack: T is lost and X is duplicated into Y.
func lift(s State) State {
	s.Stack = [constants.StackSize]float64{s.Stack[X], s.Stack[X], s.Stack[Y], s.Stack[Z]}
	return s
}

// drop removes X and Y in favor of result; T is duplicated into Z.
func drop(s State, result float64) State {
	s.Stack = [constants.StackSize]float64{result, s.Stack[Z], s.Stack[T], s.Stack[T]}
	return s
}

// digit appends d to the literal being keyed in, starting a new literal with
// an implicit stack lift when idle. Rejected keys leave s untouched.
func (e *Engine) digit(s State, d byte) State {
	entry := ""
	if s.Entering {
		entry = s.Entry
	}

	sign := ""
	body := entry
	if strings.HasPrefix(body, "-") {
		sign, body = "-", body[1:]
	}

	if d == '.' {
		if strings.Contains(body, ".") {
			return s
		}
		if body == "" {
			body = "0"
		}
		body += "."
	} else {
		if countDigits(body) >= e.opts.MaxEntryDigits && body != "0" {
			return s
		}
		if body == "0" {
			body = string(d)
		} else {
			body += string(d)
		}
	}

	entry = sign + body
	val, err := strconv.ParseFloat(entry, 64)
	if err != nil {
		return s
	}

	if !s.Entering {
		s = lift(s)
	}
	s.Entry = entry
	s.Entering = true
	s.Stack[X] = val
	return settle(s)
}

func countDigits(literal string) int {
	n := 0
	for _, r := range literal {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// changeSign negates X, or toggles the sign of the literal being keyed in
// without ending entry.
func changeSign(s State) State {
	if !s.Entering {
		s.Stack[X] = -s.Stack[X]
		return s
	}
	if strings.HasPrefix(s.Entry, "-") {
		s.Entry = s.Entry[1:]
	} else {
		s.Entry = "-" + s.Entry
	}
	s.Stack[X] = -s.Stack[X]
	return s
}

func (e *Engine) binary(s State, b Binary) State {
	x, y := s.Stack[X], s.Stack[Y]
	s.LastX = x
	if !mathutil.IsFinite(x) || !mathutil.IsFinite(y) {
		return drop(s, math.NaN())
	}

	var result float64
	switch b {
	case Add:
		result = y + x
	case Subtract:
		result = y - x
	case Multiply:
		result = y * x
	case Divide:
		switch {
		case x != 0:
			result = y / x
		case e.opts.DivideByZero == constants.DivideByZeroError:
			result = math.NaN()
		default:
			result = 0
		}
	case Power:
		result = math.Pow(y, x)
	}
	return drop(s, sentinel(result))
}

func unary(s State, u Unary) State {
	x := s.Stack[X]
	s.LastX = x
	if !mathutil.IsFinite(x) {
		s.Stack[X] = math.NaN()
		return s
	}

	var result float64
	switch u {
	case Reciprocal:
		if x == 0 {
			result = math.NaN()
		} else {
			result = 1 / x
		}
	case SquareRoot:
		result = math.Sqrt(x)
	case NaturalLog:
		if x <= 0 {
			result = math.NaN()
		} else {
			result = math.Log(x)
		}
	case Exponential:
		result = math.Exp(x)
	case Factorial:
		result = mathutil.Factorial(x)
	case FractionalPart:
		result = x - math.Trunc(x)
	case IntegerPart:
		result = math.Trunc(x)
	}
	s.Stack[X] = sentinel(result)
	return s
}

func percent(s State, p Percent) State {
	x, y := s.Stack[X], s.Stack[Y]
	s.LastX = x
	if !mathutil.IsFinite(x) || !mathutil.IsFinite(y) {
		s.Stack[X] = math.NaN()
		return s
	}

	var result float64
	switch p {
	case PercentOf:
		result = mathutil.ApplyPercentage(y, x)
	case PercentChange:
		result = mathutil.PercentChange(y, x)
	case PercentTotal:
		result = mathutil.PercentOfTotal(x, y)
	}
	s.Stack[X] = sentinel(result)
	return s
}

// convertFinancial applies the g-shifted conversion of a financial key to X
// and stores the result: n is multiplied by 12 and i divided by 12. The other
// keys store X unchanged.
func convertFinancial(s State, target tvm.Target) State {
	x := s.Stack[X]
	if !mathutil.IsFinite(x) {
		return s
	}
	result := x
	switch target {
	case tvm.N:
		result = x * constants.MonthsPerYear
	case tvm.I:
		result = x / constants.MonthsPerYear
	}
	result = sentinel(result)
	s.Stack[X] = result
	if mathutil.IsFinite(result) {
		s.Memory = s.Memory.Set(target, result)
	}
	return s
}

// solveFinancial solves target from the other four registers, stores it and
// lifts it into X. An unsolvable register leaves memory untouched and puts
// the error sentinel in X.
func (e *Engine) solveFinancial(s State, target tvm.Target) State {
	val, err := e.solver.SolveChecked(s.Memory, target)
	s = lift(s)
	if err != nil {
		e.logger.Debug("financial solve failed",
			zap.String("op", "calculator.solveFinancial"),
			zap.String("target", target.String()),
			zap.Error(err),
		)
		s.Stack[X] = math.NaN()
		return s
	}
	s.Memory = s.Memory.Set(target, val)
	s.Stack[X] = val
	return s
}

// sentinel normalizes every non-finite result to NaN.
func sentinel(val float64) float64 {
	if !mathutil.IsFinite(val) {
		return math.NaN()
	}
	return val
}
