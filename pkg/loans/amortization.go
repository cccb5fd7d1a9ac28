// Package loans amortizes the loan held in the financial registers.
package loans

import (
	"errors"
	"fmt"

	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/mathutil"
	"github.com/iwvelando/hp12c/pkg/tvm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPayments is returned when the number of payments to amortize
	// is not a whole number between 1 and MaxAmortizationPayments.
	ErrInvalidPayments = errors.New("invalid number of payments")

	// ErrInvalidLoan is returned when PV, PMT or i is not finite, or when the
	// interest or balance overflows during the schedule.
	ErrInvalidLoan = errors.New("financial registers do not describe a loan")
)

// Payment holds the values for a given payment.
type Payment struct {
	Number             int     `json:"number"`
	Interest           float64 `json:"interest"`
	Principal          float64 `json:"principal"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// Amortization totals a run of payments.
type Amortization struct {
	Payments  int       `json:"payments"`
	Interest  float64   `json:"interest"`
	Principal float64   `json:"principal"`
	Balance   float64   `json:"balance"`
	Schedule  []Payment `json:"schedule"`
}

// CalculateInterestPayment calculates the interest accrued on balance over
// one period at ratePercent per period.
func CalculateInterestPayment(balance, ratePercent float64) float64 {
	return balance * ratePercent / constants.PercentageMultiplier
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule amortizes payments periods of the loan in m starting from
// the balance in PV. Interest is rounded to precision decimal places each
// period and carries the opposite sign of the balance, so with PV positive
// and PMT negative both interest and principal come out negative. The
// returned balance is the new PV.
func (g *AmortizationScheduleGenerator) GenerateSchedule(m tvm.Memory, payments float64, precision int) (Amortization, error) {
	if !mathutil.IsInteger(payments) || payments < 1 || payments > constants.MaxAmortizationPayments {
		return Amortization{}, fmt.Errorf("%w: %v", ErrInvalidPayments, payments)
	}
	if !mathutil.IsFinite(m.PV) || !mathutil.IsFinite(m.PMT) || !mathutil.IsFinite(m.I) {
		return Amortization{}, ErrInvalidLoan
	}
	if precision < 0 {
		precision = 0
	}

	count := int(payments)
	result := Amortization{
		Payments: count,
		Balance:  m.PV,
		Schedule: make([]Payment, 0, count),
	}
	for n := 1; n <= count; n++ {
		interest := -CalculateInterestPayment(result.Balance, m.I)
		if !mathutil.IsFinite(interest) {
			return Amortization{}, fmt.Errorf("%w: interest overflows in payment %d", ErrInvalidLoan, n)
		}
		interest = roundTo(interest, precision)
		principal := m.PMT - interest
		result.Balance += principal
		if !mathutil.IsFinite(result.Balance) {
			return Amortization{}, fmt.Errorf("%w: balance overflows in payment %d", ErrInvalidLoan, n)
		}
		result.Interest += interest
		result.Principal += principal
		result.Schedule = append(result.Schedule, Payment{
			Number:             n,
			Interest:           interest,
			Principal:          principal,
			RemainingPrincipal: result.Balance,
		})
	}

	g.logger.Debug(fmt.Sprintf("amortized %d payments, remaining balance %.2f", count, result.Balance),
		zap.String("op", "loans.GenerateSchedule"),
		zap.Float64("interest", result.Interest),
		zap.Float64("principal", result.Principal),
	)
	return result, nil
}

func roundTo(val float64, places int) float64 {
	return decimal.NewFromFloat(val).Round(int32(places)).InexactFloat64()
}
