package errors

import "errors"

var (
	// ErrInvalidSessionID indicates a missing or malformed session id
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrUserRequired indicates a missing user identity
	ErrUserRequired = errors.New("user is required")

	// ErrConnectionFailed indicates the transport connect failed after retries
	ErrConnectionFailed = errors.New("failed to connect to session")

	// ErrJoinTimeout indicates a join waited past its bound for an in-flight
	// attempt; callers treat it as a connection failure
	ErrJoinTimeout = errors.New("join attempt timed out")

	// ErrPersistence indicates a store read/write failure
	ErrPersistence = errors.New("persistent store failure")

	// ErrUnauthenticated indicates no valid user identity is available
	ErrUnauthenticated = errors.New("not authenticated")
)
