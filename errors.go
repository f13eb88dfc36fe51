package zhishi

import (
	"errors"
	"fmt"
)

// Common errors returned by the zhishi client.
var (
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrCacheMiss is returned when no card cache exists.
	ErrCacheMiss = errors.New("card cache is empty")

	// ErrCacheExpired is returned when the card cache was evicted on read
	// because its last-updated marker is older than the cache TTL.
	ErrCacheExpired = errors.New("card cache expired")

	// ErrNotFound is returned when a session is not found.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidTheme is returned when a theme value is neither "dark" nor "light".
	ErrInvalidTheme = errors.New("invalid theme")
)

// RemoteCallError indicates a transport failure or non-success HTTP status
// from the completion endpoint.
type RemoteCallError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote call %s failed (HTTP %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote call %s failed: %v", e.Operation, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// StorageError indicates a local cache read/write failure. Callers treat it
// as "cache empty" and proceed; it is never fatal.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError indicates an invalid field value, in configuration or
// in a record handed to the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
