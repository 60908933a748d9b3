package finance

import (
	"errors"
	"fmt"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/money"
)

// UserMessage turns a ledger error into a sentence for the end user.
func (f *Facade) UserMessage(err error) string {
	return UserMessage(err, f.present.currency)
}

// UserMessage turns a ledger error into a sentence for the end user,
// formatting amounts in currency.
func UserMessage(err error, currency string) string {
	var (
		verr *ledger.ValidationError
		nerr *ledger.NotFoundError
		oerr *ledger.OverpaymentError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		if verr.Field == "" {
			return fmt.Sprintf("Invalid input: %s.", verr.Reason)
		}
		return fmt.Sprintf("Invalid %s: %s.", verr.Field, verr.Reason)
	case errors.As(err, &nerr):
		return fmt.Sprintf("The requested %s does not exist.", nerr.Entity)
	case errors.As(err, &oerr):
		return fmt.Sprintf("This payment would bring the amount paid to %s, above the invoice total of %s.",
			money.Format(oerr.Paid, currency), money.Format(oerr.Total, currency))
	case ledger.IsRetryable(err):
		return "The ledger is busy. Please try again."
	case errors.Is(err, ledger.ErrPersistence):
		return "The change could not be saved. Nothing was modified."
	default:
		return "Something went wrong."
	}
}
