package feed

import "errors"

// Error taxonomy shared by both feeds. Concrete errors wrap one of these.
var (
	// ErrInvalidInput marks malformed URLs or credentials, rejected before any network call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAuthentication marks credentials the vendor rejected during the handshake.
	ErrAuthentication = errors.New("authentication failed")
	// ErrUpstream marks a vendor response that arrived but was unexpected or invalid.
	ErrUpstream = errors.New("upstream error")
	// ErrTransport marks connection drops, timeouts and network failures.
	ErrTransport = errors.New("transport error")
)
