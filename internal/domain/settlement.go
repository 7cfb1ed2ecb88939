package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept on every amount.
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// Round2 rounds an amount half away from zero to MoneyScale digits.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}

// SplitCommission divides a booking price into the teacher's earnings and
// the platform's commission. Commission is the remainder so the two always
// sum to price exactly.
func SplitCommission(price, rate decimal.Decimal) (teacherEarnings, commission decimal.Decimal) {
	teacherEarnings = Round2(price.Mul(decimal.NewFromInt(1).Sub(rate)))
	commission = price.Sub(teacherEarnings)
	return teacherEarnings, commission
}

// Settlement describes how a locked amount leaves escrow.
type Settlement struct {
	Locked             decimal.Decimal
	TeacherPayout      decimal.Decimal
	StudentRefund      decimal.Decimal
	PlatformCommission decimal.Decimal
}

// Released returns the gross amount debited from the payer's pending balance
// in favour of the teacher, commission included.
func (s Settlement) Released() decimal.Decimal {
	return s.TeacherPayout.Add(s.PlatformCommission)
}

// Verify checks that no money was created or lost by the settlement.
func (s Settlement) Verify() error {
	if s.TeacherPayout.IsNegative() || s.StudentRefund.IsNegative() || s.PlatformCommission.IsNegative() {
		return fmt.Errorf("%w: negative component in %+v", ErrPayoutMismatch, s)
	}

	total := s.TeacherPayout.Add(s.StudentRefund).Add(s.PlatformCommission)
	if !total.Equal(s.Locked) {
		return fmt.Errorf("%w: %s + %s + %s != %s",
			ErrPayoutMismatch, s.TeacherPayout, s.StudentRefund, s.PlatformCommission, s.Locked)
	}

	return nil
}

// ComputeSettlement returns the payout split for a dispute resolution.
// TEACHER_WINS and DISMISSED settle like a normal completion, with commission
// taken. STUDENT_WINS refunds everything. SPLIT pays teacherPercent of the
// locked amount to the teacher without commission and refunds the rest.
func ComputeSettlement(locked, commissionRate decimal.Decimal, resolution ResolutionType, teacherPercent decimal.Decimal) (Settlement, error) {
	s := Settlement{
		Locked:             locked,
		TeacherPayout:      decimal.Zero,
		StudentRefund:      decimal.Zero,
		PlatformCommission: decimal.Zero,
	}

	switch resolution {
	case ResolutionTeacherWins, ResolutionDismissed:
		s.TeacherPayout, s.PlatformCommission = SplitCommission(locked, commissionRate)
	case ResolutionStudentWins:
		s.StudentRefund = locked
	case ResolutionSplit:
		if err := ValidateSplitPercent(teacherPercent); err != nil {
			return Settlement{}, err
		}
		s.TeacherPayout = Round2(locked.Mul(teacherPercent).Div(hundred))
		s.StudentRefund = locked.Sub(s.TeacherPayout)
	default:
		return Settlement{}, ErrInvalidResolution
	}

	if err := s.Verify(); err != nil {
		return Settlement{}, err
	}

	return s, nil
}
