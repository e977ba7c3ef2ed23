package services

import "errors"

var (
	// ErrNotOwned means the resource exists but belongs to another user.
	// Handlers map it to the same 404 body as store.ErrNotFound so
	// callers cannot probe for resources they do not own.
	ErrNotOwned = errors.New("not owned by caller")

	// ErrEmailInUse is returned when registering with a taken email.
	ErrEmailInUse = errors.New("email already in use")

	// ErrDeviceIDTaken is returned when the external device identifier
	// is already registered, by anyone.
	ErrDeviceIDTaken = errors.New("device id already registered")

	// ErrDuplicateConnection is returned when the connection pair
	// already exists.
	ErrDuplicateConnection = errors.New("connection already exists")
)
