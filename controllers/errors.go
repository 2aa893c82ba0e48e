package controller

import "errors"

// Sentinel errors used inside workflow transactions to map precondition
// failures back to validation responses at the request boundary.
var (
	errAlreadyResponded = errors.New("request already responded to")
	errNotPending       = errors.New("request is not pending")
)
