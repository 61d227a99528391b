package fetch

import "fmt"

// Kind classifies a fetch failure. Agents branch on the kind, never on the
// error string.
type Kind string

const (
	KindTimedOut          Kind = "timed_out"
	KindRateLimited       Kind = "rate_limited"
	KindProviderRejected  Kind = "provider_rejected"
	KindTransportError    Kind = "transport_error"
	KindMalformedResponse Kind = "malformed_response"
)

// Error is the typed failure returned by Client.Fetch. Status is only set for
// ProviderRejected and RateLimited.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind from any error produced by this package.
func KindOf(err error) (Kind, bool) {
	fe, ok := err.(*Error)
	if !ok {
		return "", false
	}
	return fe.Kind, true
}
