package scans

import "errors"

// ErrClassifierUnavailable collapses every classifier failure mode (network
// unreachable, non-2xx, malformed body) into one condition. The client does
// not attempt partial parsing or salvage.
var ErrClassifierUnavailable = errors.New("classifier unavailable")
