package core

import "errors"

var (
	// ErrInvalidScope is returned when a scan root is missing or not a directory
	ErrInvalidScope = errors.New("invalid file scope")
	// ErrNoTransaction is returned when a transaction call has no active transaction
	ErrNoTransaction = errors.New("no active transaction")
	// ErrTransactionActive is returned by Begin while another transaction is open
	ErrTransactionActive = errors.New("transaction already in progress")
	// ErrNotCommitted is returned when rolling back a transaction that never committed
	ErrNotCommitted = errors.New("transaction is not committed")
	// ErrFileChanged is returned when a file differs from what a transaction wrote
	ErrFileChanged = errors.New("file changed since it was written")
	// ErrLockTimeout is returned when a file lock cannot be acquired in time
	ErrLockTimeout = errors.New("timeout waiting for file lock")
)
