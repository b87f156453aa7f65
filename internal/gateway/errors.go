package gateway

import "errors"

// ErrUpstreamUnavailable reports a quiz store or execution registry failure
// during host-connect or join. It always aborts before any session mutation.
var ErrUpstreamUnavailable = errors.New("quiz data is currently unavailable")
