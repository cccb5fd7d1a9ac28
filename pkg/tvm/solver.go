// Package tvm solves the time value of money equation linking the number of
// periods, the periodic interest rate, present value, payment and future
// value. Cash paid out is negative and cash received is positive.
package tvm

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrUnknownTarget is returned when a target name is not one of n, i, pv,
// pmt or fv.
var ErrUnknownTarget = errors.New("unknown tvm target")

// ErrNonFinite is returned when a solve produces NaN or an infinity.
var ErrNonFinite = errors.New("tvm result is not finite")

// ErrNotConverged is returned when the rate iteration ends without meeting
// the tolerance.
var ErrNotConverged = errors.New("rate solve did not converge")

// Memory holds the five financial registers. I is the periodic interest rate
// as a percentage.
type Memory struct {
	N   float64 `json:"n" yaml:"n"`
	I   float64 `json:"i" yaml:"i"`
	PV  float64 `json:"pv" yaml:"pv"`
	PMT float64 `json:"pmt" yaml:"pmt"`
	FV  float64 `json:"fv" yaml:"fv"`
}

// Target names one of the five registers.
type Target int

// The five TVM registers, in keypad order.
const (
	N Target = iota
	I
	PV
	PMT
	FV
)

var targetNames = [...]string{"n", "i", "pv", "pmt", "fv"}

func (t Target) String() string {
	if t < N || t > FV {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return targetNames[t]
}

// ParseTarget converts a register name such as "PMT" into a Target.
func ParseTarget(name string) (Target, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range targetNames {
		if n == lower {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
}

// Get returns the register named by t.
func (m Memory) Get(t Target) float64 {
	switch t {
	case N:
		return m.N
	case I:
		return m.I
	case PV:
		return m.PV
	case PMT:
		return m.PMT
	case FV:
		return m.FV
	}
	return 0
}

// Set returns a copy of m with the register named by t replaced.
func (m Memory) Set(t Target, val float64) Memory {
	switch t {
	case N:
		m.N = val
	case I:
		m.I = val
	case PV:
		m.PV = val
	case PMT:
		m.PMT = val
	case FV:
		m.FV = val
	}
	return m
}

// Solver computes one register from the other four. The interest rate has no
// closed form and is found by Newton-Raphson iteration.
type Solver struct {
	Iterations   int
	Tolerance    float64
	InitialGuess float64
	logger       *zap.Logger
}

// NewSolver returns a Solver with the given iteration settings. Non-positive
// iterations and tolerances fall back to the defaults.
func NewSolver(logger *zap.Logger, iterations int, tolerance, initialGuess float64) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if iterations <= 0 {
		iterations = constants.DefaultSolverIterations
	}
	if tolerance <= 0 || !mathutil.IsFinite(tolerance) {
		tolerance = constants.DefaultSolverTolerance
	}
	if initialGuess == 0 || !mathutil.IsFinite(initialGuess) {
		initialGuess = constants.DefaultSolverGuess
	}
	return &Solver{
		Iterations:   iterations,
		Tolerance:    tolerance,
		InitialGuess: initialGuess,
		logger:       logger,
	}
}

// DefaultSolver returns a Solver with the default iteration budget starting
// from 10%.
func DefaultSolver() *Solver {
	return NewSolver(nil, constants.DefaultSolverIterations, constants.DefaultSolverTolerance, constants.DefaultSolverGuess)
}

// Solve returns the value of target implied by the other four registers.
// The result may be NaN or infinite; use SolveChecked to have that reported.
// A rate that does not converge is NaN.
func Solve(m Memory, target Target) float64 {
	return DefaultSolver().Solve(m, target)
}

// SolveChecked is Solve with non-finite results reported as ErrNonFinite and
// a rate that does not converge reported as ErrNotConverged.
func (s *Solver) SolveChecked(m Memory, target Target) (float64, error) {
	if target < N || target > FV {
		return math.NaN(), fmt.Errorf("%w: %d", ErrUnknownTarget, int(target))
	}
	if target == I {
		rate, converged := s.Rate(m.N, m.PV, m.PMT, m.FV)
		if !mathutil.IsFinite(rate) {
			return math.NaN(), fmt.Errorf("solving %s: %w", target, ErrNonFinite)
		}
		if !converged {
			return math.NaN(), fmt.Errorf("solving %s after %d iterations: %w", target, s.Iterations, ErrNotConverged)
		}
		return rate, nil
	}
	val := s.Solve(m, target)
	if !mathutil.IsFinite(val) {
		return val, fmt.Errorf("solving %s: %w", target, ErrNonFinite)
	}
	return val, nil
}

// Solve returns the value of target implied by the other four registers.
func (s *Solver) Solve(m Memory, target Target) float64 {
	switch target {
	case FV:
		return FutureValue(m.N, m.I, m.PV, m.PMT)
	case PV:
		return PresentValue(m.N, m.I, m.PMT, m.FV)
	case PMT:
		return Payment(m.N, m.I, m.PV, m.FV)
	case N:
		return Periods(m.I, m.PV, m.PMT, m.FV)
	case I:
		rate, converged := s.Rate(m.N, m.PV, m.PMT, m.FV)
		if !converged {
			return math.NaN()
		}
		return rate
	}
	return 0
}

// FutureValue solves for fv given the periodic rate i as a percentage.
func FutureValue(n, i, pv, pmt float64) float64 {
	r := i / constants.PercentageMultiplier
	if r == 0 {
		return -(pv + pmt*n)
	}
	growth := math.Pow(1+r, n)
	return -(pv*growth + pmt*(growth-1)/r)
}

// PresentValue solves for pv given the periodic rate i as a percentage.
func PresentValue(n, i, pmt, fv float64) float64 {
	r := i / constants.PercentageMultiplier
	if r == 0 {
		return -(fv + pmt*n)
	}
	growth := math.Pow(1+r, n)
	return (-fv - pmt*(growth-1)/r) / growth
}

// Payment solves for pmt given the periodic rate i as a percentage.
func Payment(n, i, pv, fv float64) float64 {
	r := i / constants.PercentageMultiplier
	if r == 0 {
		return -(fv + pv) / n
	}
	growth := math.Pow(1+r, n)
	return (-fv - pv*growth) * r / (growth - 1)
}

// Periods solves for n given the periodic rate i as a percentage. With a zero
// rate and zero payment there is no solution and 0 is returned.
func Periods(i, pv, pmt, fv float64) float64 {
	r := i / constants.PercentageMultiplier
	if r == 0 {
		if pmt == 0 {
			return 0
		}
		return -(fv + pv) / pmt
	}
	return math.Log((pmt-fv*r)/(pmt+pv*r)) / math.Log(1+r)
}

// Rate solves for the periodic interest rate, returned as a percentage, and
// reports whether the iteration converged. The residual is compared against
// the tolerance scaled by the magnitude of the cash flow terms, so the test
// does not depend on the size of the loan or the number of periods.
func (s *Solver) Rate(n, pv, pmt, fv float64) (float64, bool) {
	// The equation is singular at a zero rate; check that root directly.
	if undiscounted := pv + pmt*n + fv; math.Abs(undiscounted) <= s.Tolerance*math.Max(1, math.Abs(pv)+math.Abs(pmt*n)+math.Abs(fv)) {
		return 0, true
	}

	rate := s.InitialGuess
	converged := false
	iterations := 0
	for iterations < s.Iterations {
		f, df, scale := rateResidual(rate, n, pv, pmt, fv)
		if !mathutil.IsFinite(f) || !mathutil.IsFinite(scale) {
			return math.NaN(), false
		}
		if math.Abs(f) <= s.Tolerance*math.Max(1, scale) {
			converged = true
			break
		}
		if df == 0 || !mathutil.IsFinite(df) {
			s.logger.Debug("rate derivative vanished",
				zap.String("op", "tvm.Rate"),
				zap.Float64("rate", rate),
				zap.Int("iteration", iterations),
			)
			return math.NaN(), false
		}
		rate -= f / df
		iterations++
		if !mathutil.IsFinite(rate) || rate <= -1 {
			return math.NaN(), false
		}
	}

	if !converged {
		f, _, scale := rateResidual(rate, n, pv, pmt, fv)
		converged = mathutil.IsFinite(f) && mathutil.IsFinite(scale) && math.Abs(f) <= s.Tolerance*math.Max(1, scale)
	}
	if !converged {
		s.logger.Debug("rate solve did not converge",
			zap.String("op", "tvm.Rate"),
			zap.Float64("rate", rate),
			zap.Int("iterations", iterations),
		)
	}
	return rate * constants.PercentageMultiplier, converged
}

// rateResidual evaluates the TVM equation at a periodic rate, its derivative
// with respect to the rate, and the sum of the magnitudes of its terms.
func rateResidual(rate, n, pv, pmt, fv float64) (float64, float64, float64) {
	growth := math.Pow(1+rate, n)
	growthPrev := math.Pow(1+rate, n-1)
	annuity := pmt * (growth - 1) / rate
	f := pv*growth + annuity + fv
	df := n*pv*growthPrev + pmt*(n*rate*growthPrev-(growth-1))/(rate*rate)
	return f, df, math.Abs(pv*growth) + math.Abs(annuity) + math.Abs(fv)
}
