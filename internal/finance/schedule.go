package finance

import (
	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// RepaymentSchedule splits the loan's total repayment into equal monthly
// installments over the term. Amounts are whole units; the last installment
// absorbs the rounding remainder. Installments fully covered by the amount
// repaid so far are marked paid.
func RepaymentSchedule(loan models.Loan) []models.Installment {
	n := decimal.NewFromInt(LoanTermMonths)
	regular := loan.TotalRepayment.Div(n).Floor()

	schedule := make([]models.Installment, 0, LoanTermMonths)
	scheduled := decimal.Zero
	for i := 1; i <= LoanTermMonths; i++ {
		amount := regular
		if i == LoanTermMonths {
			amount = loan.TotalRepayment.Sub(scheduled)
		}
		scheduled = scheduled.Add(amount)

		schedule = append(schedule, models.Installment{
			Number:      i,
			PaymentDate: loan.DisbursementDate.AddDate(0, i, 0),
			Amount:      amount,
			Paid:        loan.RepaidAmount.GreaterThanOrEqual(scheduled),
		})
	}
	return schedule
}
