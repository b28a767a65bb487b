package registrar

import (
	"errors"
	"fmt"

	"github.com/ruteri/registrar-controller/interfaces"
)

var (
	// ErrNotCommitted is returned by the tracker when a reveal is attempted for a
	// name without a tracked commitment.
	ErrNotCommitted = errors.New("no commitment tracked for name")

	// ErrCommitmentTooNew is returned when the commitment has not reached the
	// controller's minimum commitment age.
	ErrCommitmentTooNew = errors.New("commitment is younger than the minimum commitment age")

	// ErrCommitmentExpired is returned when the commitment is older than the
	// controller's maximum commitment age.
	ErrCommitmentExpired = errors.New("commitment is older than the maximum commitment age")

	// ErrCommitmentMismatch is returned when the controller's commitment does not
	// match the locally computed one.
	ErrCommitmentMismatch = errors.New("controller commitment does not match local computation")

	// ErrAlreadyRegistered is returned when a commit is attempted for a name the
	// tracker already recorded as registered.
	ErrAlreadyRegistered = errors.New("name is already registered")
)

// CallError reports that the gateway failed to perform a read or write:
// transport failures, ledger rejections and reverts.
type CallError struct {
	Method string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Method, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// DecodeError reports that a read succeeded but its result did not have the
// expected shape, which indicates an ABI or contract version mismatch.
type DecodeError struct {
	Method string
	Field  string
	Want   string
	Got    interface{}
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: cannot decode result: %v", e.Method, e.Err)
	}
	if e.Got == nil {
		return fmt.Sprintf("%s: result field %q missing, want %s", e.Method, e.Field, e.Want)
	}
	return fmt.Sprintf("%s: result field %q is %T, want %s", e.Method, e.Field, e.Got, e.Want)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AmountParseError reports a price string that cannot be converted to base
// units. It is returned before any gateway interaction.
type AmountParseError struct {
	Amount string
	Err    error
}

func (e *AmountParseError) Error() string {
	return fmt.Sprintf("wrong price %q: %v", e.Amount, e.Err)
}

func (e *AmountParseError) Unwrap() error {
	return e.Err
}

// ConstructionError reports that the gateway could not build the call from the
// given method and parameters. Nothing reached the ledger.
type ConstructionError struct {
	Method string
	Err    error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct %s call: %v", e.Method, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// classify maps a gateway error into the session's error taxonomy.
func classify(method string, err error) error {
	switch {
	case errors.Is(err, interfaces.ErrConstruction):
		return &ConstructionError{Method: method, Err: err}
	case errors.Is(err, interfaces.ErrDecode):
		return &DecodeError{Method: method, Err: err}
	default:
		return &CallError{Method: method, Err: err}
	}
}
