package forecast

import (
	"errors"
	"fmt"

	"github.com/sartorproj/pricecast/timeseries"
)

var (
	// ErrInvalidInput reports a malformed or empty series, or a negative horizon.
	ErrInvalidInput = timeseries.ErrInvalidInput
	// ErrInsufficientData reports a series shorter than a model's minimum window.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNonConvergence reports a numerical fit that failed or produced non-finite values.
	ErrNonConvergence = errors.New("fit did not converge")
	// ErrUnknownModel reports an unsupported model name.
	ErrUnknownModel = errors.New("unknown model")
)

// InsufficientDataError carries the window a model needed.
type InsufficientDataError struct {
	Model string
	Need  int
	Have  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: need at least %d observations, have %d", e.Model, e.Need, e.Have)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// NonConvergenceError describes why a fit was rejected.
type NonConvergenceError struct {
	Model  string
	Reason string
	Err    error
}

func (e *NonConvergenceError) Error() string {
	msg := fmt.Sprintf("%s: fit did not converge: %s", e.Model, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying numerical error.
func (e *NonConvergenceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNonConvergence}
	}
	return []error{ErrNonConvergence, e.Err}
}

// NonConvergence builds a *NonConvergenceError.
func NonConvergence(model, reason string, err error) error {
	return &NonConvergenceError{Model: model, Reason: reason, Err: err}
}
