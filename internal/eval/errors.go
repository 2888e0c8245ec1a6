package eval

import "fmt"

// OracleResponseError means the oracle's output could not be parsed as
// structured data at all. Non-retryable; the raw text is preserved for
// diagnosis.
type OracleResponseError struct {
	Raw string
	Err error
}

func (e *OracleResponseError) Error() string {
	return fmt.Sprintf("eval: unparseable oracle response: %v", e.Err)
}

func (e *OracleResponseError) Unwrap() error { return e.Err }

// ValidationError means the oracle's output parsed as JSON but violates
// a required-section invariant. Non-retryable.
type ValidationError struct {
	Section string
	Msg     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("eval: %s: %s", e.Section, e.Msg)
}
