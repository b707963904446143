package swap

import (
	"errors"

	"shine-swap/pkg/wallet"
)

var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrWrongNetwork       = wallet.ErrWrongNetwork
	ErrApprovalFailed     = errors.New("approval failed")
	ErrExecutionReverted  = errors.New("swap execution reverted")
	ErrUserRejected       = errors.New("user rejected")
	ErrSwapInProgress     = errors.New("another swap is still pending")
)

// Outcome is how a finished swap attempt is reported to the user
type Outcome int

const (
	OutcomeSettled Outcome = iota
	// OutcomeCancelled is a benign, signer-side cancellation
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// IsUserRejection reports whether err came from the signer declining
func IsUserRejection(err error) bool {
	return errors.Is(err, ErrUserRejected) || wallet.IsUserRejection(err)
}

// Classify maps the error returned by Execute to an Outcome
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSettled
	case IsUserRejection(err):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// rejectedError keeps the signer's error in the chain next to ErrUserRejected
type rejectedError struct {
	cause error
}

func (e *rejectedError) Error() string {
	return ErrUserRejected.Error() + ": " + e.cause.Error()
}

func (e *rejectedError) Unwrap() []error {
	return []error{ErrUserRejected, e.cause}
}

// classifySubmit turns a failed submission into ErrUserRejected when the
// signer declined; anything else is returned unchanged.
func classifySubmit(err error) error {
	if err == nil || errors.Is(err, ErrUserRejected) {
		return err
	}
	if wallet.IsUserRejection(err) {
		return &rejectedError{cause: err}
	}
	return err
}
