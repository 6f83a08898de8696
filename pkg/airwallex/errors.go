package airwallex

import "fmt"

// TransportError is a network-level failure talking to Airwallex. It is never
// retried here; callers decide whether re-invoking the phase is safe.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("airwallex: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError means the login call completed but returned no usable token.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("airwallex: authentication: %s", e.Reason)
}
