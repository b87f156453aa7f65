package session

import "errors"

// Coordinator error taxonomy. These surface to clients as private error
// events; they never crash the dispatcher or leave a session half-mutated.
var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrHostAlreadyAssigned     = errors.New("another connection already hosts this session")
	ErrNotAuthorized           = errors.New("only the session host may perform this operation")
	ErrSessionAlreadyCompleted = errors.New("session is already completed")
)
